package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

func openTestJournal(t *testing.T, opts Options) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "runlog.db"), opts)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func result(startedAt time.Time, added int) domain.SyncResult {
	return domain.SyncResult{
		Success:       true,
		ArticlesAdded: added,
		DurationMs:    1500,
		StartedAt:     startedAt,
	}
}

func TestJournalRecordAndRecent(t *testing.T) {
	j := openTestJournal(t, Options{})

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := j.Record(result(base.Add(time.Duration(i)*time.Hour), i)); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	runs, err := j.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	// Newest first.
	if runs[0].ArticlesAdded != 4 || runs[1].ArticlesAdded != 3 || runs[2].ArticlesAdded != 2 {
		t.Fatalf("unexpected order: %d, %d, %d", runs[0].ArticlesAdded, runs[1].ArticlesAdded, runs[2].ArticlesAdded)
	}
	if !runs[0].StartedAt.Equal(base.Add(4 * time.Hour)) {
		t.Fatalf("started at = %v", runs[0].StartedAt)
	}
}

func TestJournalRecentWithFewerEntries(t *testing.T) {
	j := openTestJournal(t, Options{})

	if err := j.Record(result(time.Now(), 1)); err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := j.Recent(50)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
}

func TestJournalExpiresOldRuns(t *testing.T) {
	j := openTestJournal(t, Options{TTL: time.Hour, CleanupInterval: time.Nanosecond})

	now := time.Now()
	if err := j.Record(result(now.Add(-2*time.Hour), 1)); err != nil {
		t.Fatalf("record old run: %v", err)
	}

	// Force the next Record past the cleanup interval gate.
	j.lastCleanup.Store(0)
	if err := j.Record(result(now, 2)); err != nil {
		t.Fatalf("record fresh run: %v", err)
	}

	runs, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want only the fresh one", len(runs))
	}
	if runs[0].ArticlesAdded != 2 {
		t.Fatalf("surviving run = %+v", runs[0])
	}
}

func TestJournalNilSafe(t *testing.T) {
	var j *Journal
	if err := j.Record(result(time.Now(), 1)); err != nil {
		t.Fatalf("nil journal Record: %v", err)
	}
	runs, err := j.Recent(5)
	if err != nil || runs != nil {
		t.Fatalf("nil journal Recent = %v, %v", runs, err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("nil journal Close: %v", err)
	}
}
