package platform

import "context"

// Client is the record API surface the engine consumes. The host application
// owns the HTTP implementation (auth headers, retries); the engine only
// depends on this interface so decision logic stays transport-free.
type Client interface {
	// ListRoles returns the project's role definitions.
	ListRoles(ctx context.Context) ([]Role, error)

	// GetForm fetches the full definition (including the component tree)
	// for the form at the given path.
	GetForm(ctx context.Context, path string) (*FormDefinition, error)

	// ListForms returns the definitions visible to the session.
	ListForms(ctx context.Context) ([]FormDefinition, error)

	// ListRecords lists submissions for a form, honoring Query scoping and
	// field selection.
	ListRecords(ctx context.Context, formPath string, q Query) ([]Record, error)

	// ListRecordIDs lists only submission ids, for unread computation.
	ListRecordIDs(ctx context.Context, formPath string, q Query) ([]string, error)

	// CountRecords returns the submission total without transferring
	// payloads (the platform exposes it via a range header).
	CountRecords(ctx context.Context, formPath string, q Query) (int, error)

	// CreateViewEvent durably records that the session user opened a
	// record, returning the event id.
	CreateViewEvent(ctx context.Context, recordID, formID string) (string, error)

	// ListViewEvents returns the user's existing view events.
	ListViewEvents(ctx context.Context, userID string) ([]ViewEvent, error)
}
