package access

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/formlane/visor/pkg/observability"
	"github.com/formlane/visor/pkg/platform"
)

const (
	// sharePanelKey marks the form component that declares per-record
	// share settings.
	sharePanelKey  = "shareSettings"
	sharePanelType = "panel"

	defaultPanelCacheSize = 512
)

// ShareInspector answers share-visibility questions for single records. It
// owns the per-form-id cache of share-settings panel detection: a form's
// component tree does not change within a session, so the traversal runs at
// most once per form.
type ShareInspector struct {
	panelCache *lru.LRU[string, bool]
	metrics    *observability.Metrics
}

// NewShareInspector creates an inspector with the given panel cache size and
// TTL. Size <= 0 uses the default; ttl 0 means entries never expire.
func NewShareInspector(size int, ttl time.Duration, metrics *observability.Metrics) *ShareInspector {
	if size <= 0 {
		size = defaultPanelCacheSize
	}
	return &ShareInspector{
		panelCache: lru.NewLRU[string, bool](size, nil, ttl),
		metrics:    metrics,
	}
}

// HasShareSettings reports whether the form declares a share-settings panel.
// Results are cached per form id; forms without an id are inspected anew
// each call.
func (si *ShareInspector) HasShareSettings(form *platform.FormDefinition) bool {
	if form == nil {
		return false
	}
	if form.ID != "" {
		if found, ok := si.panelCache.Get(form.ID); ok {
			si.metrics.RecordPanelCache(true)
			return found
		}
		si.metrics.RecordPanelCache(false)
	}

	found := containsSharePanel(form.Components)

	if form.ID != "" {
		si.panelCache.Add(form.ID, found)
	}
	return found
}

// RecordVisible decides whether one record is visible to the user under the
// record's share declaration. First match wins:
//
//  1. admin
//  2. owner
//  3. form declares no share panel (coarse permissions govern upstream)
//  4. record is public
//  5. role overlap
//  6. department overlap
//  7. committee overlap
//  8. explicit user list
//
// A form that declares sharing while the record declares no matching
// criterion is private to its owner and admins.
func (si *ShareInspector) RecordVisible(user *platform.User, rec *platform.Record, form *platform.FormDefinition, opts Options) bool {
	visible := si.recordVisible(user, rec, form, opts)
	si.metrics.RecordShareCheck(visible)
	return visible
}

func (si *ShareInspector) recordVisible(user *platform.User, rec *platform.Record, form *platform.FormDefinition, opts Options) bool {
	if opts.IsAdmin {
		return true
	}
	if user != nil && user.ID != "" && rec != nil && user.ID == rec.Owner {
		return true
	}
	if !si.HasShareSettings(form) {
		return true
	}

	share := platform.ShareFieldsOf(rec)
	if share.Public {
		return true
	}
	if platform.SetsOverlap(share.Roles, user.RoleSet()) {
		return true
	}
	if platform.SetsOverlap(share.Department, user.ProfileIDSet("departments")) {
		return true
	}
	if platform.SetsOverlap(share.Committee, user.ProfileIDSet("committees")) {
		return true
	}
	if user != nil && user.ID != "" {
		if _, ok := share.Users[user.ID]; ok {
			return true
		}
	}
	return false
}

// ClearCache drops all cached panel detections.
func (si *ShareInspector) ClearCache() {
	si.panelCache.Purge()
}

func containsSharePanel(components []platform.Component) bool {
	for _, c := range components {
		if c.Key == sharePanelKey && c.Type == sharePanelType {
			return true
		}
		if containsSharePanel(c.Components) {
			return true
		}
	}
	return false
}
