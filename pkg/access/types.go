package access

// AccessType is one (action, scope) pair of the permission model.
type AccessType string

const (
	CreateAll AccessType = "create_all"
	CreateOwn AccessType = "create_own"
	ReadAll   AccessType = "read_all"
	ReadOwn   AccessType = "read_own"
	UpdateAll AccessType = "update_all"
	UpdateOwn AccessType = "update_own"
	DeleteAll AccessType = "delete_all"
	DeleteOwn AccessType = "delete_own"
)

// AllAccessTypes lists the eight access types in declaration order.
var AllAccessTypes = []AccessType{
	CreateAll, CreateOwn,
	ReadAll, ReadOwn,
	UpdateAll, UpdateOwn,
	DeleteAll, DeleteOwn,
}

// Matrix is the eight-way permission decision for a (user, form, admin flag)
// triple. It is recomputed per request and safe to memoize within a render.
type Matrix struct {
	CreateAll bool `json:"canCreateAll"`
	CreateOwn bool `json:"canCreateOwn"`
	ReadAll   bool `json:"canReadAll"`
	ReadOwn   bool `json:"canReadOwn"`
	UpdateAll bool `json:"canUpdateAll"`
	UpdateOwn bool `json:"canUpdateOwn"`
	DeleteAll bool `json:"canDeleteAll"`
	DeleteOwn bool `json:"canDeleteOwn"`
}

// AllowAll returns the administrator matrix: every entry granted.
func AllowAll() Matrix {
	return Matrix{
		CreateAll: true, CreateOwn: true,
		ReadAll: true, ReadOwn: true,
		UpdateAll: true, UpdateOwn: true,
		DeleteAll: true, DeleteOwn: true,
	}
}

// Can reports whether the matrix grants the given access type.
func (m Matrix) Can(t AccessType) bool {
	switch t {
	case CreateAll:
		return m.CreateAll
	case CreateOwn:
		return m.CreateOwn
	case ReadAll:
		return m.ReadAll
	case ReadOwn:
		return m.ReadOwn
	case UpdateAll:
		return m.UpdateAll
	case UpdateOwn:
		return m.UpdateOwn
	case DeleteAll:
		return m.DeleteAll
	case DeleteOwn:
		return m.DeleteOwn
	}
	return false
}

// CanRead reports whether any read scope is granted.
func (m Matrix) CanRead() bool {
	return m.ReadAll || m.ReadOwn
}

// Any reports whether at least one entry is granted.
func (m Matrix) Any() bool {
	for _, t := range AllAccessTypes {
		if m.Can(t) {
			return true
		}
	}
	return false
}

// Options carries the admin override flag for decision functions. The
// override is global and unconditional: administrators bypass all scoping.
type Options struct {
	IsAdmin bool
}
