package badges

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/formlane/visor/pkg/access"
	"github.com/formlane/visor/pkg/ledger"
	"github.com/formlane/visor/pkg/observability"
	"github.com/formlane/visor/pkg/platform"
)

const (
	// DefaultBatchSize bounds concurrent per-form count fetches during
	// initialization.
	DefaultBatchSize = 5

	// listLimit caps id/share-field listings. Matches the platform's
	// maximum page size.
	listLimit = 5000

	// shareSelect trims share-gated listings to the fields the row gate
	// needs.
	shareSelect = "_id,owner,data.sharePublic,data.shareRoles,data.shareDepartments,data.shareCommittees,data.shareUsers"
)

// Counts is the badge state for one form.
type Counts struct {
	Total     int
	Unread    int
	RecordIDs []string
}

// CategoryCounts is the aggregate over a tag group of forms.
type CategoryCounts struct {
	Total  int
	Unread int
}

// Aggregator derives and maintains badge counts from the viewed ledger and
// collection totals.
type Aggregator struct {
	client    platform.Client
	inspector *access.ShareInspector
	ledger    *ledger.Ledger
	log       *logrus.Logger
	metric    *observability.Metrics
	batchSize int

	mu          sync.Mutex
	counts      map[string]*Counts
	initialized bool
}

// NewAggregator wires an aggregator. batchSize <= 0 uses DefaultBatchSize.
func NewAggregator(client platform.Client, inspector *access.ShareInspector, led *ledger.Ledger, batchSize int, log *logrus.Logger, metrics *observability.Metrics) *Aggregator {
	if log == nil {
		log = logrus.New()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Aggregator{
		client:    client,
		inspector: inspector,
		ledger:    led,
		log:       log,
		metric:    metrics,
		batchSize: batchSize,
		counts:    map[string]*Counts{},
	}
}

// InitCounts computes counts for every badge-bearing form. Re-entry without
// an intervening Reset is a no-op re-render path that reuses cached counts.
// Individual form failures are logged and isolated; InitCounts itself never
// returns an error to its caller.
func (a *Aggregator) InitCounts(ctx context.Context, forms []platform.FormDefinition, user *platform.User, opts access.Options) {
	if len(forms) == 0 || user == nil {
		return
	}

	a.mu.Lock()
	if a.initialized {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.ledger.Load(ctx, user.ID)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.batchSize)

	for i := range forms {
		form := forms[i]
		if form.Settings.HideBadges {
			continue
		}
		eg.Go(func() error {
			counts, err := a.fetchFormCounts(ctx, &form, user, opts)
			a.metric.RecordBadgeRefresh(err)
			if err != nil {
				a.log.WithError(err).WithField("form", form.Path).
					Warn("badge count fetch failed; keeping prior state")
				return nil
			}
			a.mu.Lock()
			a.counts[form.ID] = counts
			a.mu.Unlock()
			return nil
		})
	}

	// Workers never propagate errors, so this only waits.
	_ = eg.Wait()

	a.mu.Lock()
	a.initialized = true
	a.mu.Unlock()
}

// fetchFormCounts computes {total, unread, member ids} for one form.
func (a *Aggregator) fetchFormCounts(ctx context.Context, form *platform.FormDefinition, user *platform.User, opts access.Options) (*Counts, error) {
	matrix := access.Evaluate(user, form, opts)
	a.metric.RecordEvaluation(matrix.Any())
	if !matrix.CanRead() {
		return &Counts{RecordIDs: []string{}}, nil
	}

	q := platform.Query{Limit: listLimit, Select: "_id"}
	if !matrix.ReadAll && matrix.ReadOwn {
		q.Owner = user.ID
	}

	// Sidebar listings omit the component tree; panel detection needs the
	// full definition.
	fullForm := form
	if !form.HasComponents() {
		fetched, err := a.client.GetForm(ctx, form.Path)
		if err != nil {
			a.log.WithError(err).WithField("form", form.Path).
				Warn("full definition fetch failed; assuming no share panel")
		} else if fetched != nil {
			fullForm = platform.DecodeForm(fetched)
		}
	}

	if a.inspector.HasShareSettings(fullForm) {
		return a.fetchSharedFormCounts(ctx, fullForm, user, opts, q)
	}

	total, err := a.client.CountRecords(ctx, form.Path, platform.Query{Limit: 1, Select: "_id", Owner: q.Owner})
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	counts := &Counts{Total: total, RecordIDs: []string{}}
	if total == 0 {
		return counts, nil
	}

	ids, err := a.client.ListRecordIDs(ctx, form.Path, q)
	if err != nil {
		// The total still paints; only the unread figure degrades.
		a.log.WithError(err).WithField("form", form.Path).
			Warn("id listing failed; unread count unavailable")
		return counts, nil
	}
	counts.RecordIDs = ids
	counts.Unread = a.countUnread(ids)
	return counts, nil
}

// fetchSharedFormCounts lists minimal share fields and applies the row gate
// client-side, so badge totals match what the filtered list view shows.
func (a *Aggregator) fetchSharedFormCounts(ctx context.Context, form *platform.FormDefinition, user *platform.User, opts access.Options, q platform.Query) (*Counts, error) {
	q.Select = shareSelect
	records, err := a.client.ListRecords(ctx, form.Path, q)
	if err != nil {
		return nil, fmt.Errorf("list share fields: %w", err)
	}

	visible := a.inspector.FilterRows(user, records, form, opts)
	ids := make([]string, 0, len(visible))
	for i := range visible {
		ids = append(ids, visible[i].ID)
	}
	return &Counts{
		Total:     len(ids),
		Unread:    a.countUnread(ids),
		RecordIDs: ids,
	}, nil
}

func (a *Aggregator) countUnread(ids []string) int {
	unread := 0
	for _, id := range ids {
		if id != "" && !a.ledger.IsViewed(id) {
			unread++
		}
	}
	return unread
}

// IncrementOnCreate bumps a form's total after a new submission. The creator
// has implicitly seen their own submission, so unread does not grow.
func (a *Aggregator) IncrementOnCreate(formID, recordID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts, ok := a.counts[formID]
	if !ok {
		return
	}
	counts.Total++
	if recordID != "" {
		counts.RecordIDs = append(counts.RecordIDs, recordID)
		a.ledger.MarkViewedLocal(recordID)
	}
}

// DecrementOnDelete drops a deleted submission from a form's counts.
func (a *Aggregator) DecrementOnDelete(formID, recordID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts, ok := a.counts[formID]
	if !ok {
		return
	}
	if counts.Total > 0 {
		counts.Total--
	}
	if recordID == "" {
		return
	}
	if !a.ledger.IsViewed(recordID) && counts.Unread > 0 {
		counts.Unread--
	}
	kept := counts.RecordIDs[:0]
	for _, id := range counts.RecordIDs {
		if id != recordID {
			kept = append(kept, id)
		}
	}
	counts.RecordIDs = kept
}

// OnViewed updates counts after a submission was opened: a newly-viewed
// record stops counting as unread and is durably marked via the ledger.
func (a *Aggregator) OnViewed(ctx context.Context, formID, recordID string) {
	if formID == "" || recordID == "" {
		return
	}

	wasNew := a.ledger.MarkViewed(ctx, recordID, formID)
	if !wasNew {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if counts, ok := a.counts[formID]; ok && counts.Unread > 0 {
		counts.Unread--
	}
}

// FormCounts returns a copy of the counts for one form.
func (a *Aggregator) FormCounts(formID string) (Counts, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts, ok := a.counts[formID]
	if !ok {
		return Counts{}, false
	}
	out := Counts{Total: counts.Total, Unread: counts.Unread}
	out.RecordIDs = append([]string{}, counts.RecordIDs...)
	return out, true
}

// CategoryTotals sums per-form counts for a tag group. The per-form map is
// the single source of truth; category badges are always recomputed from it.
func (a *Aggregator) CategoryTotals(formIDs []string) CategoryCounts {
	a.mu.Lock()
	defer a.mu.Unlock()

	var cat CategoryCounts
	for _, id := range formIDs {
		if counts, ok := a.counts[id]; ok {
			cat.Total += counts.Total
			cat.Unread += counts.Unread
		}
	}
	return cat
}

// Initialized reports whether a full InitCounts pass has completed.
func (a *Aggregator) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// Reset clears all counts. Called at logout.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = map[string]*Counts{}
	a.initialized = false
}
