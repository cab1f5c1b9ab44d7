package access

import (
	"github.com/formlane/visor/pkg/platform"
)

// defaultMembershipFields are the profile fields scanned for group
// membership when a rule does not name its own.
var defaultMembershipFields = []string{"departments", "committees"}

// Evaluate computes the permission matrix for a user on a form.
//
// The decision is the union of two passes: a role pass over the form's
// submission access rules (falling back to form-level rules), and a group
// pass over the form's group-permission rules, which grant access types to
// users whose profile marks them as members of the rule's resource record.
// Admins bypass both passes and receive the full matrix.
func Evaluate(user *platform.User, form *platform.FormDefinition, opts Options) Matrix {
	if opts.IsAdmin {
		return AllowAll()
	}

	userRoles := user.RoleSet()
	rules := form.SubmissionRules()

	granted := map[AccessType]struct{}{}
	for _, rule := range rules {
		if rule.Type == "" || len(rule.RoleIDs) == 0 {
			continue
		}
		if _, known := accessTypeSet[AccessType(rule.Type)]; !known {
			continue
		}
		if roleListIntersects(userRoles, rule.RoleIDs) {
			granted[AccessType(rule.Type)] = struct{}{}
		}
	}

	for t := range groupGrants(user, form) {
		granted[t] = struct{}{}
	}

	var m Matrix
	m.CreateAll = has(granted, CreateAll)
	m.CreateOwn = has(granted, CreateOwn)
	m.ReadAll = has(granted, ReadAll)
	m.ReadOwn = has(granted, ReadOwn)
	m.UpdateAll = has(granted, UpdateAll)
	m.UpdateOwn = has(granted, UpdateOwn)
	m.DeleteAll = has(granted, DeleteAll)
	m.DeleteOwn = has(granted, DeleteOwn)
	return m
}

// groupGrants collects the access types granted through group-permission
// rules the user's profile matches.
func groupGrants(user *platform.User, form *platform.FormDefinition) map[AccessType]struct{} {
	grants := map[AccessType]struct{}{}
	if user == nil || user.Profile == nil || form == nil {
		return grants
	}

	for _, rule := range form.GroupPermissions {
		if rule.ResourceID == "" || len(rule.Access) == 0 {
			continue
		}

		fields := append([]string{}, defaultMembershipFields...)
		fields = append(fields, rule.FieldNames...)

		if !belongsToGroup(user, fields, rule.ResourceID) {
			continue
		}
		for _, a := range rule.Access {
			if _, known := accessTypeSet[AccessType(a)]; known {
				grants[AccessType(a)] = struct{}{}
			}
		}
	}
	return grants
}

// belongsToGroup scans the named profile fields for a value equal to, or
// containing an entry equal to, the resource id. Values may be bare ids or
// populated objects.
func belongsToGroup(user *platform.User, fields []string, resourceID string) bool {
	seen := map[string]struct{}{}
	for _, field := range fields {
		if field == "" {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}

		ids := platform.NormalizeIDSet(user.Profile[field])
		if _, ok := ids[resourceID]; ok {
			return true
		}
	}
	return false
}

func roleListIntersects(userRoles map[string]struct{}, ruleRoles []string) bool {
	for _, id := range ruleRoles {
		if _, ok := userRoles[id]; ok {
			return true
		}
	}
	return false
}

func has(set map[AccessType]struct{}, t AccessType) bool {
	_, ok := set[t]
	return ok
}

var accessTypeSet = func() map[AccessType]struct{} {
	set := make(map[AccessType]struct{}, len(AllAccessTypes))
	for _, t := range AllAccessTypes {
		set[t] = struct{}{}
	}
	return set
}()
