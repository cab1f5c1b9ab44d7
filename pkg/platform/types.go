package platform

import (
	"errors"
	"fmt"
)

// Role is a project-level role definition. Roles are immutable once fetched
// and cached by the role directory.
type Role struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	MachineName string `json:"machineName"`
	Admin       bool   `json:"admin"`
	Default     bool   `json:"default"`
}

// User is the acting user as supplied by the session layer. Profile holds
// arbitrary form-defined membership fields (departments, committees, ...)
// whose value shapes are not fixed; normalization helpers deal with them.
type User struct {
	ID      string         `json:"_id"`
	RoleIDs []string       `json:"roles"`
	Profile map[string]any `json:"data"`
}

// UserFromRoles adapts call sites that only carry a role-id set into the
// single explicit User type the engine accepts.
func UserFromRoles(roleIDs []string) *User {
	return &User{RoleIDs: roleIDs}
}

// RoleSet returns the user's role ids as a set.
func (u *User) RoleSet() map[string]struct{} {
	if u == nil {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(u.RoleIDs))
	for _, id := range u.RoleIDs {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// ProfileIDSet returns the normalized id set held by a profile field.
// Missing fields yield an empty set.
func (u *User) ProfileIDSet(field string) map[string]struct{} {
	if u == nil || u.Profile == nil {
		return map[string]struct{}{}
	}
	return NormalizeIDSet(u.Profile[field])
}

// AccessRule grants one access type to a set of roles. Rules with an empty
// type or role list never match; they are kept as-is so evaluation stays
// total over malformed configuration.
type AccessRule struct {
	Type    string   `json:"type"`
	RoleIDs []string `json:"roles"`
}

// GroupPermissionRule grants access types to members of a named resource
// record (a department or committee submission). FieldNames lists the
// profile fields to scan for membership; when empty the evaluator falls back
// to the conventional membership fields.
type GroupPermissionRule struct {
	ResourceID string   `json:"resource"`
	FieldNames []string `json:"fieldNames"`
	Access     []string `json:"access"`
}

// Component is the minimal slice of the form component tree the engine needs:
// just enough to locate the share-settings panel marker.
type Component struct {
	Key        string      `json:"key"`
	Type       string      `json:"type"`
	Components []Component `json:"components,omitempty"`
}

// FormSettings carries the form-level settings the engine reads.
type FormSettings struct {
	HideBadges       bool `json:"hideBadges"`
	GroupPermissions any  `json:"groupPermissions,omitempty"`
}

// FormDefinition is a form as returned by the platform. Sidebar listings may
// omit Components; callers needing panel detection fetch the full definition.
type FormDefinition struct {
	ID               string                `json:"_id"`
	Path             string                `json:"path"`
	Title            string                `json:"title"`
	Access           []AccessRule          `json:"access"`
	SubmissionAccess []AccessRule          `json:"submissionAccess"`
	GroupPermissions []GroupPermissionRule `json:"-"`
	Components       []Component           `json:"components"`
	Settings         FormSettings          `json:"settings"`
}

// SubmissionRules returns the rules governing submission-level access,
// falling back to form-level access when no submission rules exist.
func (f *FormDefinition) SubmissionRules() []AccessRule {
	if f == nil {
		return nil
	}
	if len(f.SubmissionAccess) > 0 {
		return f.SubmissionAccess
	}
	return f.Access
}

// HasComponents reports whether the definition carries its component tree.
func (f *FormDefinition) HasComponents() bool {
	return f != nil && len(f.Components) > 0
}

// Record is a single submission. Share-relevant fields live under Data and
// are decoded on demand through ShareFieldsOf.
type Record struct {
	ID     string         `json:"_id"`
	Owner  string         `json:"owner"`
	FormID string         `json:"form"`
	Data   map[string]any `json:"data"`
}

// ShareFields is the decoded per-record share declaration. Absent fields
// decode to their zero values, which the share filter treats as "no sharing
// declared".
type ShareFields struct {
	Public     bool
	Roles      map[string]struct{}
	Department map[string]struct{}
	Committee  map[string]struct{}
	Users      map[string]struct{}
}

// Empty reports whether no share criterion is declared at all.
func (s ShareFields) Empty() bool {
	return !s.Public && len(s.Roles) == 0 && len(s.Department) == 0 &&
		len(s.Committee) == 0 && len(s.Users) == 0
}

// ShareFieldsOf decodes the share-relevant entries of a record's data map.
func ShareFieldsOf(rec *Record) ShareFields {
	var out ShareFields
	if rec == nil || rec.Data == nil {
		return out
	}
	if v, ok := rec.Data["sharePublic"].(bool); ok {
		out.Public = v
	}
	out.Roles = NormalizeIDSet(rec.Data["shareRoles"])
	out.Department = NormalizeIDSet(rec.Data["shareDepartments"])
	out.Committee = NormalizeIDSet(rec.Data["shareCommittees"])
	out.Users = NormalizeIDSet(rec.Data["shareUsers"])
	return out
}

// ViewEvent is one durable "user has opened this record" marker.
type ViewEvent struct {
	EventID  string `json:"_id"`
	RecordID string `json:"submissionId"`
	FormID   string `json:"form"`
}

// Query holds list options for record fetches. Owner scopes the listing to
// records owned by that user; Select trims payloads to the named fields.
type Query struct {
	Limit  int
	Sort   string
	Owner  string
	Select string
}

// StatusError is a transport failure carrying the HTTP status the platform
// returned. The role directory uses it to distinguish authorization failures
// from transient ones.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform request failed: status %d", e.Code)
	}
	return fmt.Sprintf("platform request failed: status %d: %s", e.Code, e.Message)
}

// IsAuthError reports whether err is a 401/403 platform response.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == 401 || se.Code == 403
}
