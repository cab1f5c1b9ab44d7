package session

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/formlane/visor/pkg/access"
	"github.com/formlane/visor/pkg/badges"
	"github.com/formlane/visor/pkg/config"
	"github.com/formlane/visor/pkg/ledger"
	"github.com/formlane/visor/pkg/observability"
	"github.com/formlane/visor/pkg/platform"
	"github.com/formlane/visor/pkg/roles"
)

// Session holds the engine components for one logged-in user.
type Session struct {
	User       *platform.User
	Directory  *roles.Directory
	Inspector  *access.ShareInspector
	Ledger     *ledger.Ledger
	Aggregator *badges.Aggregator

	admin   access.Options
	warning string
}

// Deps are the collaborators a session is built from. Store defaults to the
// platform-backed view-event store; Log and Metrics may be nil.
type Deps struct {
	Client  platform.Client
	Store   ledger.Store
	Config  *config.Config
	Log     *logrus.Logger
	Metrics *observability.Metrics
}

// New wires a session for the given user. The admin flag is resolved once at
// session start; its advisory warning (if any) is retained for the UI.
func New(ctx context.Context, user *platform.User, deps Deps) *Session {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Store == nil {
		deps.Store = ledger.NewPlatformStore(deps.Client)
	}

	dir := roles.NewDirectory(deps.Client, cfg.FallbackAdminRoleID, deps.Log, deps.Metrics)
	inspector := access.NewShareInspector(cfg.PanelCacheSize, cfg.PanelCacheTTL, deps.Metrics)
	led := ledger.New(deps.Store, cfg.LedgerWriteMode, deps.Log, deps.Metrics)
	agg := badges.NewAggregator(deps.Client, inspector, led, cfg.BadgeBatchSize, deps.Log, deps.Metrics)

	s := &Session{
		User:       user,
		Directory:  dir,
		Inspector:  inspector,
		Ledger:     led,
		Aggregator: agg,
	}

	status := dir.IsAdministrator(ctx, user)
	s.admin = access.Options{IsAdmin: status.IsAdmin}
	s.warning = status.Warning
	return s
}

// AdminOptions returns the resolved admin override for decision calls.
func (s *Session) AdminOptions() access.Options {
	return s.admin
}

// AdminWarning returns the advisory from the admin check, empty when the
// check ran at full confidence.
func (s *Session) AdminWarning() string {
	return s.warning
}

// Evaluate computes the session user's permission matrix for a form.
func (s *Session) Evaluate(form *platform.FormDefinition) access.Matrix {
	return access.Evaluate(s.User, form, s.admin)
}

// CanSeeRow applies the row gate for the session user.
func (s *Session) CanSeeRow(rec *platform.Record, form *platform.FormDefinition) bool {
	return s.Inspector.CanSeeRow(s.User, rec, form, s.admin)
}

// Reset clears every piece of session state. Called at logout; the session
// must not be reused for another user afterwards.
func (s *Session) Reset() {
	s.User = nil
	s.admin = access.Options{}
	s.warning = ""
	s.Directory.ClearCache()
	s.Inspector.ClearCache()
	s.Ledger.Reset()
	s.Aggregator.Reset()
}
