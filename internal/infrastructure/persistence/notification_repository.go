package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormNotificationRepository implements NotificationRepository using GORM.
// A partial unique index on (user_id, type, subject_id) WHERE NOT read
// backs the dedup guarantee; the unique violation from a lost insert
// race surfaces as shared.ErrAlreadyExists.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindUnread returns the unread notification matching the dedup key
func (r *GormNotificationRepository) FindUnread(ctx context.Context, userID uuid.UUID, notifType notification.Type, subjectID uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND subject_id = ? AND read = ?", userID, notifType, subjectID, false).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindByUser lists a user's notifications, newest first
func (r *GormNotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, filter shared.Filter) ([]notification.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("read = ?", false)
	}

	var items []notification.Notification
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountUnread counts a user's unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a notification, mapping a unique violation on
// the unread dedup index to shared.ErrAlreadyExists
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	if err := r.db.WithContext(ctx).Save(n).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// MarkAllRead flags every unread notification of a user as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":       true,
			"read_at":    now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeleteReadOlderThan removes read notifications past the cutoff
func (r *GormNotificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read = ? AND read_at < ?", true, cutoff).
		Delete(&notification.Notification{})
	return result.RowsAffected, result.Error
}

// isUniqueViolation detects a Postgres unique constraint error (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)
