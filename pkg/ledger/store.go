package ledger

import (
	"context"
	"fmt"

	"github.com/formlane/visor/pkg/platform"
)

// Store is the durable backing for view events.
type Store interface {
	// Load returns all view events recorded for the user.
	Load(ctx context.Context, userID string) ([]platform.ViewEvent, error)

	// Save durably records one view event and returns its id. Saving an
	// already-recorded (user, record) pair must succeed; the ledger
	// avoids duplicate calls but does not depend on it.
	Save(ctx context.Context, userID, recordID, formID string) (string, error)
}

// PlatformStore persists view events through the record API, the default
// deployment shape: the platform owns a dedicated view-event form and the
// session token scopes reads to the current user.
type PlatformStore struct {
	client platform.Client
}

// NewPlatformStore creates a record-API-backed store.
func NewPlatformStore(client platform.Client) *PlatformStore {
	return &PlatformStore{client: client}
}

// Load lists the user's view events from the platform.
func (s *PlatformStore) Load(ctx context.Context, userID string) ([]platform.ViewEvent, error) {
	events, err := s.client.ListViewEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list view events: %w", err)
	}
	return events, nil
}

// Save creates one view event through the platform.
func (s *PlatformStore) Save(ctx context.Context, userID, recordID, formID string) (string, error) {
	eventID, err := s.client.CreateViewEvent(ctx, recordID, formID)
	if err != nil {
		return "", fmt.Errorf("create view event: %w", err)
	}
	return eventID, nil
}
