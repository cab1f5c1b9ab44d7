package badges

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formlane/visor/pkg/access"
	"github.com/formlane/visor/pkg/ledger"
	"github.com/formlane/visor/pkg/platform"
)

// fakeClient is an in-memory record API. Per-path failure injection drives
// the isolation tests.
type fakeClient struct {
	mu sync.Mutex

	forms      map[string]*platform.FormDefinition // by path
	records    map[string][]platform.Record        // by path
	viewEvents []platform.ViewEvent

	countErr map[string]error
	listErr  map[string]error

	countCalls map[string]int
	ownerSeen  map[string]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		forms:      map[string]*platform.FormDefinition{},
		records:    map[string][]platform.Record{},
		countErr:   map[string]error{},
		listErr:    map[string]error{},
		countCalls: map[string]int{},
		ownerSeen:  map[string]string{},
	}
}

func (f *fakeClient) ListRoles(ctx context.Context) ([]platform.Role, error) { return nil, nil }

func (f *fakeClient) GetForm(ctx context.Context, path string) (*platform.FormDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if form, ok := f.forms[path]; ok {
		return form, nil
	}
	return nil, &platform.StatusError{Code: 404}
}

func (f *fakeClient) ListForms(ctx context.Context) ([]platform.FormDefinition, error) {
	return nil, nil
}

func (f *fakeClient) scoped(path string, q platform.Query) []platform.Record {
	recs := f.records[path]
	if q.Owner == "" {
		return recs
	}
	var out []platform.Record
	for _, r := range recs {
		if r.Owner == q.Owner {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeClient) ListRecords(ctx context.Context, path string, q platform.Query) ([]platform.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[path]; err != nil {
		return nil, err
	}
	f.ownerSeen[path] = q.Owner
	return f.scoped(path, q), nil
}

func (f *fakeClient) ListRecordIDs(ctx context.Context, path string, q platform.Query) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[path]; err != nil {
		return nil, err
	}
	f.ownerSeen[path] = q.Owner
	var ids []string
	for _, r := range f.scoped(path, q) {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (f *fakeClient) CountRecords(ctx context.Context, path string, q platform.Query) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls[path]++
	if err := f.countErr[path]; err != nil {
		return 0, err
	}
	f.ownerSeen[path] = q.Owner
	return len(f.scoped(path, q)), nil
}

func (f *fakeClient) CreateViewEvent(ctx context.Context, recordID, formID string) (string, error) {
	return "ev-" + recordID, nil
}

func (f *fakeClient) ListViewEvents(ctx context.Context, userID string) ([]platform.ViewEvent, error) {
	return f.viewEvents, nil
}

func plainForm(id, path string) platform.FormDefinition {
	return platform.FormDefinition{
		ID:   id,
		Path: path,
		SubmissionAccess: []platform.AccessRule{
			{Type: "read_all", RoleIDs: []string{"r1"}},
		},
		Components: []platform.Component{{Key: "title", Type: "textfield"}},
	}
}

func sharedForm(id, path string) platform.FormDefinition {
	f := plainForm(id, path)
	f.Components = append(f.Components, platform.Component{Key: "shareSettings", Type: "panel"})
	return f
}

func testUser() *platform.User {
	return &platform.User{ID: "u1", RoleIDs: []string{"r1"}}
}

func newAggregator(client platform.Client) (*Aggregator, *ledger.Ledger) {
	led := ledger.New(ledger.NewPlatformStore(client), ledger.Optimistic, nil, nil)
	inspector := access.NewShareInspector(0, 0, nil)
	return NewAggregator(client, inspector, led, 2, nil, nil), led
}

func records(path string, ids ...string) []platform.Record {
	out := make([]platform.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, platform.Record{ID: id, Owner: "someone", FormID: path})
	}
	return out
}

func TestInitCountsPlainForm(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1", "s2", "s3")
	client.viewEvents = []platform.ViewEvent{{EventID: "e1", RecordID: "s1"}}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.Unread)
	assert.Len(t, counts.RecordIDs, 3)
	assert.True(t, agg.Initialized())
}

func TestInitCountsShareForm(t *testing.T) {
	client := newFakeClient()
	client.records["plans"] = []platform.Record{
		{ID: "own", Owner: "u1"},
		{ID: "public", Owner: "x", Data: map[string]any{"sharePublic": true}},
		{ID: "private", Owner: "x", Data: map[string]any{}},
	}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{sharedForm("f1", "plans")}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Equal(t, 2, counts.Total, "private rows must not count")
	assert.Equal(t, 2, counts.Unread)
	assert.ElementsMatch(t, []string{"own", "public"}, counts.RecordIDs)
}

func TestInitCountsOwnerScoped(t *testing.T) {
	client := newFakeClient()
	client.records["mine"] = []platform.Record{
		{ID: "s1", Owner: "u1"},
		{ID: "s2", Owner: "someone-else"},
	}
	form := platform.FormDefinition{
		ID:   "f1",
		Path: "mine",
		SubmissionAccess: []platform.AccessRule{
			{Type: "read_own", RoleIDs: []string{"r1"}},
		},
		Components: []platform.Component{{Key: "title", Type: "textfield"}},
	}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{form}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Equal(t, 1, counts.Total)
	assert.Equal(t, "u1", client.ownerSeen["mine"], "read_own must scope the query to the owner")
}

func TestInitCountsNoReadAccess(t *testing.T) {
	client := newFakeClient()
	client.records["secret"] = records("secret", "s1")
	form := platform.FormDefinition{
		ID:   "f1",
		Path: "secret",
		SubmissionAccess: []platform.AccessRule{
			{Type: "read_all", RoleIDs: []string{"someone-elses-role"}},
		},
		Components: []platform.Component{{Key: "title", Type: "textfield"}},
	}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{form}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Zero(t, counts.Total)
	assert.Zero(t, counts.Unread)
	assert.Zero(t, client.countCalls["secret"], "no fetch for unreadable forms")
}

func TestInitCountsFetchesFullFormForPanelDetection(t *testing.T) {
	client := newFakeClient()
	full := sharedForm("f1", "plans")
	client.forms["plans"] = &full
	client.records["plans"] = []platform.Record{
		{ID: "private", Owner: "x", Data: map[string]any{}},
	}

	// Sidebar stub: same form without its component tree.
	stub := sharedForm("f1", "plans")
	stub.Components = nil

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{stub}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Zero(t, counts.Total, "share gating must apply after fetching the full definition")
}

func TestInitCountsSkipsHiddenForms(t *testing.T) {
	client := newFakeClient()
	client.records["hidden"] = records("hidden", "s1")
	form := plainForm("f1", "hidden")
	form.Settings.HideBadges = true

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{form}, testUser(), access.Options{})

	_, ok := agg.FormCounts("f1")
	assert.False(t, ok)
}

func TestInitCountsFailureIsolation(t *testing.T) {
	client := newFakeClient()
	client.records["a"] = records("a", "a1")
	client.records["b"] = records("b", "b1")
	client.records["c"] = records("c", "c1", "c2")
	client.countErr["b"] = errors.New("gateway timeout")

	agg, _ := newAggregator(client)
	forms := []platform.FormDefinition{
		plainForm("fa", "a"),
		plainForm("fb", "b"),
		plainForm("fc", "c"),
	}
	agg.InitCounts(context.Background(), forms, testUser(), access.Options{})

	countsA, ok := agg.FormCounts("fa")
	require.True(t, ok)
	assert.Equal(t, 1, countsA.Total)

	countsC, ok := agg.FormCounts("fc")
	require.True(t, ok)
	assert.Equal(t, 2, countsC.Total)

	_, ok = agg.FormCounts("fb")
	assert.False(t, ok, "failed form stays at zero state")
	assert.True(t, agg.Initialized())
}

func TestInitCountsIdempotentReentry(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1")
	forms := []platform.FormDefinition{plainForm("f1", "notes")}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), forms, testUser(), access.Options{})
	assert.Equal(t, 1, client.countCalls["notes"])

	// Re-render path: no refetch.
	agg.InitCounts(context.Background(), forms, testUser(), access.Options{})
	assert.Equal(t, 1, client.countCalls["notes"])

	// After logout+reset a fresh pass refetches.
	agg.Reset()
	agg.InitCounts(context.Background(), forms, testUser(), access.Options{})
	assert.Equal(t, 2, client.countCalls["notes"])
}

func TestInitCountsIdListFailureDegradesUnreadOnly(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1", "s2")
	client.listErr["notes"] = errors.New("timeout")

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Equal(t, 2, counts.Total, "the range-header total still paints")
	assert.Zero(t, counts.Unread)
}

func TestBadgeArithmetic(t *testing.T) {
	// Starting from total=5, unread=3: viewing an unread record, then
	// deleting records in both viewed states.
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1", "s2", "s3", "s4", "s5")
	client.viewEvents = []platform.ViewEvent{
		{EventID: "e1", RecordID: "s1"},
		{EventID: "e2", RecordID: "s2"},
	}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	counts, _ := agg.FormCounts("f1")
	require.Equal(t, 5, counts.Total)
	require.Equal(t, 3, counts.Unread)

	agg.OnViewed(context.Background(), "f1", "s3")
	counts, _ = agg.FormCounts("f1")
	assert.Equal(t, 2, counts.Unread)

	// Deleting the now-viewed record leaves unread alone.
	agg.DecrementOnDelete("f1", "s3")
	counts, _ = agg.FormCounts("f1")
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 2, counts.Unread)

	// Deleting a still-unread record decrements both.
	agg.DecrementOnDelete("f1", "s4")
	counts, _ = agg.FormCounts("f1")
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 1, counts.Unread)
	assert.NotContains(t, counts.RecordIDs, "s3")
	assert.NotContains(t, counts.RecordIDs, "s4")
}

func TestOnViewedIdempotent(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1", "s2")

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	agg.OnViewed(context.Background(), "f1", "s1")
	agg.OnViewed(context.Background(), "f1", "s1")

	counts, _ := agg.FormCounts("f1")
	assert.Equal(t, 1, counts.Unread, "second view of the same record must not decrement")
}

func TestIncrementOnCreate(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = records("notes", "s1")

	agg, led := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	counts, _ := agg.FormCounts("f1")
	require.Equal(t, 1, counts.Unread)

	agg.IncrementOnCreate("f1", "s-new")
	counts, _ = agg.FormCounts("f1")
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Unread, "creator has seen their own submission")
	assert.Contains(t, counts.RecordIDs, "s-new")
	assert.True(t, led.IsViewed("s-new"))

	// Unknown form is a no-op, not a panic.
	agg.IncrementOnCreate("f-unknown", "x")
}

func TestDecrementFloorsAtZero(t *testing.T) {
	client := newFakeClient()
	client.records["notes"] = []platform.Record{}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{plainForm("f1", "notes")}, testUser(), access.Options{})

	agg.DecrementOnDelete("f1", "ghost")
	counts, _ := agg.FormCounts("f1")
	assert.Zero(t, counts.Total)
	assert.Zero(t, counts.Unread)
}

func TestCategoryTotals(t *testing.T) {
	client := newFakeClient()
	client.records["a"] = records("a", "a1", "a2")
	client.records["b"] = records("b", "b1")
	client.viewEvents = []platform.ViewEvent{{EventID: "e1", RecordID: "a1"}}

	agg, _ := newAggregator(client)
	forms := []platform.FormDefinition{plainForm("fa", "a"), plainForm("fb", "b")}
	agg.InitCounts(context.Background(), forms, testUser(), access.Options{})

	cat := agg.CategoryTotals([]string{"fa", "fb", "f-unknown"})
	assert.Equal(t, 3, cat.Total)
	assert.Equal(t, 2, cat.Unread)

	assert.Zero(t, agg.CategoryTotals(nil).Total)
}

func TestInitCountsAdminSeesEverything(t *testing.T) {
	client := newFakeClient()
	client.records["plans"] = []platform.Record{
		{ID: "private", Owner: "x", Data: map[string]any{}},
	}

	agg, _ := newAggregator(client)
	agg.InitCounts(context.Background(), []platform.FormDefinition{sharedForm("f1", "plans")},
		&platform.User{ID: "admin"}, access.Options{IsAdmin: true})

	counts, ok := agg.FormCounts("f1")
	require.True(t, ok)
	assert.Equal(t, 1, counts.Total)
}
