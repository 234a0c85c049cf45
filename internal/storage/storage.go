package storage

import (
	"context"
	"errors"

	"github.com/oralabs/ora-memory/internal/models"
)

// ErrUnavailable is returned when the backing store cannot complete an
// operation. It is the one storage failure callers must not swallow:
// losing a crisis-tier record silently is unacceptable.
var ErrUnavailable = errors.New("storage unavailable")

// ErrDimensionMismatch is returned when a record's embedding length
// disagrees with the dimension the store was initialized with.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Storage is the durable record store for users, interaction records and
// derived insights. Interaction records and insights are append-only;
// the only delete path is bulk per-user erasure.
type Storage interface {
	// GetUser returns the user's profile, or (nil, nil) if the user has
	// never been seen.
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// TouchUser creates the user on first contact and advances
	// LastActiveAt, which is monotonically non-decreasing.
	TouchUser(ctx context.Context, userID string) (*models.User, error)
	// UpdateUserProfile sets the display name and/or preferences.
	// Empty name and nil preferences leave the existing values in place.
	UpdateUserProfile(ctx context.Context, userID, name string, preferences map[string]any) error

	// AppendRecord persists an interaction record. The record's embedding
	// must match the configured dimension.
	AppendRecord(ctx context.Context, record *models.InteractionRecord) error
	// ListRecent returns up to limit records, most recent first; ties on
	// created_at break by record ID descending for determinism.
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.InteractionRecord, error)
	// ListAll returns every record for the user, most recent first.
	// Callers doing aggregation apply their own sampling limits.
	ListAll(ctx context.Context, userID string) ([]*models.InteractionRecord, error)
	CountRecords(ctx context.Context, userID string) (int, error)

	AddInsight(ctx context.Context, insight *models.InsightRecord) error
	// ListInsights returns up to limit insights, most recent first.
	ListInsights(ctx context.Context, userID string, limit int) ([]*models.InsightRecord, error)

	// DeleteUserData erases the user row and everything derived from it.
	DeleteUserData(ctx context.Context, userID string) error

	Close() error
}
