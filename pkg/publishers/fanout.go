package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers article events to every enabled downstream sink. The
// syncer fires it once per newly created article; delivery failures must
// never fail the sync run itself, so callers treat the error as advisory.
type Fanout struct {
	sinks []Publisher
}

// NewFanout builds a Fanout over the given publishers, dropping nil entries.
func NewFanout(pubs []Publisher) *Fanout {
	sinks := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		sinks = append(sinks, p)
	}
	return &Fanout{sinks: sinks}
}

// Publish sends the article event to each sink in turn and reports how many
// accepted it. Per-sink failures are joined into a single error; a nil or
// empty Fanout is a no-op.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.sinks) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, p := range f.sinks {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

// Size reports how many sinks are wired.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}
