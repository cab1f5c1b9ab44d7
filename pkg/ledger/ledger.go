package ledger

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/formlane/visor/pkg/observability"
)

// WriteMode selects the durability policy for view-event writes.
type WriteMode string

const (
	// Optimistic advances the in-memory set synchronously and persists in
	// the background; write failures are logged, never rolled back.
	Optimistic WriteMode = "optimistic"

	// Strict awaits the durable write and rolls the in-memory mark back
	// on failure.
	Strict WriteMode = "strict"
)

// Ledger tracks viewed record ids for one session user.
type Ledger struct {
	store  Store
	mode   WriteMode
	log    *logrus.Logger
	metric *observability.Metrics

	mu       sync.Mutex
	userID   string
	viewed   map[string]struct{}
	eventIDs map[string]string

	// wg tracks in-flight background writes so tests and shutdown can
	// drain them.
	wg sync.WaitGroup
}

// New creates a ledger over the given store. An empty mode defaults to
// Optimistic.
func New(store Store, mode WriteMode, log *logrus.Logger, metrics *observability.Metrics) *Ledger {
	if log == nil {
		log = logrus.New()
	}
	if mode == "" {
		mode = Optimistic
	}
	return &Ledger{
		store:    store,
		mode:     mode,
		log:      log,
		metric:   metrics,
		viewed:   map[string]struct{}{},
		eventIDs: map[string]string{},
	}
}

// Load populates the viewed set from durable storage. Failures are logged
// and leave the set empty: the ledger fails open toward showing more unread
// badges, never toward hiding data.
func (l *Ledger) Load(ctx context.Context, userID string) {
	l.mu.Lock()
	l.userID = userID
	l.viewed = map[string]struct{}{}
	l.eventIDs = map[string]string{}
	l.mu.Unlock()

	events, err := l.store.Load(ctx, userID)
	if err != nil {
		l.log.WithError(err).Warn("loading viewed records failed; starting with empty set")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range events {
		if ev.RecordID == "" {
			continue
		}
		l.viewed[ev.RecordID] = struct{}{}
		if ev.EventID != "" {
			l.eventIDs[ev.RecordID] = ev.EventID
		}
	}
	l.log.WithField("count", len(l.viewed)).Debug("loaded viewed records")
}

// MarkViewed records that the user opened a record. It is idempotent: a
// record already in the set returns false without touching the store. The
// check-then-add runs under the lock, so rapid repeated calls produce one
// write.
func (l *Ledger) MarkViewed(ctx context.Context, recordID, formID string) bool {
	if recordID == "" {
		return false
	}

	l.mu.Lock()
	if _, seen := l.viewed[recordID]; seen {
		l.mu.Unlock()
		return false
	}
	l.viewed[recordID] = struct{}{}
	userID := l.userID
	l.mu.Unlock()

	switch l.mode {
	case Strict:
		if err := l.persist(ctx, userID, recordID, formID); err != nil {
			l.mu.Lock()
			delete(l.viewed, recordID)
			l.mu.Unlock()
			l.log.WithError(err).WithField("record", recordID).
				Warn("strict view write failed; mark rolled back")
			return false
		}
	default:
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			// Background write deliberately detaches from the caller's
			// context; navigation away must not cancel durability.
			if err := l.persist(context.Background(), userID, recordID, formID); err != nil {
				l.log.WithError(err).WithField("record", recordID).
					Warn("view write failed; in-memory mark kept")
			}
		}()
	}
	return true
}

func (l *Ledger) persist(ctx context.Context, userID, recordID, formID string) error {
	eventID, err := l.store.Save(ctx, userID, recordID, formID)
	l.metric.RecordLedgerWrite(err)
	if err != nil {
		return err
	}
	if eventID != "" {
		l.mu.Lock()
		l.eventIDs[recordID] = eventID
		l.mu.Unlock()
	}
	return nil
}

// IsViewed reports whether the record is in the session's viewed set.
func (l *Ledger) IsViewed(recordID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.viewed[recordID]
	return ok
}

// MarkViewedLocal adds a record to the in-memory set without a durable
// write. Used for records the user implicitly saw, such as their own
// freshly-created submissions.
func (l *Ledger) MarkViewedLocal(recordID string) {
	if recordID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.viewed[recordID] = struct{}{}
}

// EventID returns the durable event id recorded for a viewed record.
func (l *Ledger) EventID(recordID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.eventIDs[recordID]
	return id, ok
}

// ViewedCount returns the size of the viewed set.
func (l *Ledger) ViewedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.viewed)
}

// Reset clears all session state. Called at logout.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userID = ""
	l.viewed = map[string]struct{}{}
	l.eventIDs = map[string]string{}
}

// Wait blocks until in-flight background writes finish.
func (l *Ledger) Wait() {
	l.wg.Wait()
}
