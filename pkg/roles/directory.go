package roles

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/formlane/visor/pkg/observability"
	"github.com/formlane/visor/pkg/platform"
)

// AdminStatus is the outcome of an administrator check. Warning carries a
// non-fatal advisory when the answer was produced under degraded conditions;
// the check itself never fails.
type AdminStatus struct {
	IsAdmin bool
	Warning string
}

// Directory caches role definitions for the active project and answers
// administrator checks against them.
type Directory struct {
	client platform.Client
	log    *logrus.Logger
	metric *observability.Metrics

	// fallbackAdminRoleID is the deployment-configured role id used to
	// confirm admin status when the role listing itself is forbidden.
	fallbackAdminRoleID string

	mu     sync.Mutex
	cache  []platform.Role
	cached bool
}

// NewDirectory creates a role directory over the given client. The fallback
// admin role id may be empty, disabling the degraded-confidence path.
func NewDirectory(client platform.Client, fallbackAdminRoleID string, log *logrus.Logger, metrics *observability.Metrics) *Directory {
	if log == nil {
		log = logrus.New()
	}
	return &Directory{
		client:              client,
		log:                 log,
		metric:              metrics,
		fallbackAdminRoleID: fallbackAdminRoleID,
	}
}

// FetchRoles returns the cached role list unless force is set or the cache
// is empty. Authorization failures are returned to the caller so the admin
// check can apply its fallback; any other failure is logged and swallowed by
// caching an empty list, so the UI degrades instead of crashing.
func (d *Directory) FetchRoles(ctx context.Context, force bool) ([]platform.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached && !force {
		d.metric.RecordRoleCache(true)
		return d.cache, nil
	}
	d.metric.RecordRoleCache(false)

	roles, err := d.client.ListRoles(ctx)
	if err != nil {
		if platform.IsAuthError(err) {
			return nil, err
		}
		d.log.WithError(err).Warn("role listing failed; treating directory as empty")
		d.cache = []platform.Role{}
		d.cached = true
		return d.cache, nil
	}

	d.cache = roles
	d.cached = true
	return d.cache, nil
}

// ClearCache drops the cached role list; the next FetchRoles refetches.
func (d *Directory) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = nil
	d.cached = false
}

// IsAdministrator reports whether any of the user's roles is flagged admin
// in the directory. It never returns an error: on an authorization failure
// it falls back to membership in the configured known-admin role id, and on
// any other failure it degrades to non-admin with an advisory warning.
func (d *Directory) IsAdministrator(ctx context.Context, user *platform.User) AdminStatus {
	if user == nil {
		return AdminStatus{Warning: "not signed in"}
	}
	if len(user.RoleIDs) == 0 {
		return AdminStatus{}
	}

	roles, err := d.FetchRoles(ctx, false)
	if err != nil {
		if platform.IsAuthError(err) {
			return d.fallbackAdminCheck(user)
		}
		// FetchRoles only surfaces auth errors, but keep the degraded
		// path total anyway.
		d.log.WithError(err).Warn("admin check failed")
		return AdminStatus{Warning: "admin tools unavailable (role lookup failed)"}
	}

	adminRoles := make(map[string]struct{})
	for _, r := range roles {
		if r.Admin {
			adminRoles[r.ID] = struct{}{}
		}
	}
	for _, id := range user.RoleIDs {
		if _, ok := adminRoles[id]; ok {
			return AdminStatus{IsAdmin: true}
		}
	}
	return AdminStatus{}
}

// fallbackAdminCheck confirms admin status via the configured role id when
// the role listing itself is not readable by the session. This works around
// platform deployments where non-admins cannot list roles.
func (d *Directory) fallbackAdminCheck(user *platform.User) AdminStatus {
	if d.fallbackAdminRoleID == "" {
		return AdminStatus{Warning: "admin tools unavailable (role lookup forbidden)"}
	}
	for _, id := range user.RoleIDs {
		if id == d.fallbackAdminRoleID {
			return AdminStatus{
				IsAdmin: true,
				Warning: "admin status confirmed via role id (role lookup limited)",
			}
		}
	}
	return AdminStatus{}
}
