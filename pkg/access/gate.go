package access

import (
	"github.com/formlane/visor/pkg/platform"
)

// CanSeeRow is the list-filtering decision: admin, owner, or share-visible.
// It gates individual fetched rows; whether the user may use the form at all
// is the Evaluate matrix's job, and callers compose the two.
func (si *ShareInspector) CanSeeRow(user *platform.User, rec *platform.Record, form *platform.FormDefinition, opts Options) bool {
	if opts.IsAdmin {
		return true
	}
	if user != nil && user.ID != "" && rec != nil && user.ID == rec.Owner {
		return true
	}
	return si.RecordVisible(user, rec, form, opts)
}

// FilterRows returns the subset of records the user may see, preserving
// order.
func (si *ShareInspector) FilterRows(user *platform.User, recs []platform.Record, form *platform.FormDefinition, opts Options) []platform.Record {
	out := make([]platform.Record, 0, len(recs))
	for i := range recs {
		if si.CanSeeRow(user, &recs[i], form, opts) {
			out = append(out, recs[i])
		}
	}
	return out
}
