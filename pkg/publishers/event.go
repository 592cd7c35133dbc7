package publishers

import (
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

// EventArticleCreated is emitted once per newly persisted article.
const EventArticleCreated = "article.created"

// Event is the payload published downstream when the pipeline stores a new
// article.
type Event struct {
	Type       string                   `json:"type"`
	SourceID   string                   `json:"source_id"`
	SourceName string                   `json:"source_name"`
	Article    domain.NormalizedArticle `json:"article"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// NewArticleCreated constructs the event for the given source + article.
func NewArticleCreated(sourceID, sourceName string, article domain.NormalizedArticle) Event {
	return Event{
		Type:       EventArticleCreated,
		SourceID:   sourceID,
		SourceName: sourceName,
		Article:    article,
		OccurredAt: time.Now().UTC(),
	}
}
