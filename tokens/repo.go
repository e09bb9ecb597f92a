package tokens

import (
	"context"

	apperrors "github.com/jrsteele09/go-social-portal/internal/errors"
	"github.com/jrsteele09/go-social-portal/socialmodel"
)

// ErrNotFound is returned by Get when a session holds no token for the provider.
var ErrNotFound = apperrors.ErrNotFound

// Store defines session-scoped access token storage.
// Records are visible only to the session that stored them. Implementations must be safe
// for concurrent use; for a single session and provider the last Put wins.
type Store interface {
	// Get returns the record for the session and provider, or ErrNotFound.
	// No expiry check is made here.
	Get(ctx context.Context, sessionID string, key socialmodel.ProviderKey) (*socialmodel.AccessTokenRecord, error)

	// Put stores record, replacing any previous record for the session and provider.
	// A later Get returns record.Canonical().
	Put(ctx context.Context, sessionID string, key socialmodel.ProviderKey, record *socialmodel.AccessTokenRecord) error

	// Clear removes the record for the session and provider. Clearing a missing record is not an error.
	Clear(ctx context.Context, sessionID string, key socialmodel.ProviderKey) error

	// ClearSession removes every record of a session that has ended.
	ClearSession(ctx context.Context, sessionID string) error
}
