package notification

import (
	"context"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// FindByID finds a notification by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// FindUnread returns the unread notification matching the dedup key,
	// or shared.ErrNotFound when none exists
	FindUnread(ctx context.Context, userID uuid.UUID, notifType Type, subjectID uuid.UUID) (*Notification, error)

	// FindByUser lists a user's notifications, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, filter shared.Filter) ([]Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// Save creates or updates a notification. Creating a duplicate unread
	// row for the same (user, type, subject) fails with
	// shared.ErrAlreadyExists so callers can retry as a refresh.
	Save(ctx context.Context, notification *Notification) error

	// MarkAllRead flags every unread notification of a user as read and
	// returns how many rows changed
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteReadOlderThan removes read notifications whose read timestamp
	// is before the cutoff, returning the number of rows removed
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
