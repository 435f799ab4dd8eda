package notification

import (
	"context"
	"errors"
	"time"

	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService owns the in-app notification store. Creation
// deduplicates: one unread notification per (user, type, subject), with
// repeats refreshing the existing row's message instead of stacking.
type NotificationService struct {
	scope  scope.TransactionScope
	logger *zap.Logger
}

// NewNotificationService creates a notification service
func NewNotificationService(txScope scope.TransactionScope, logger *zap.Logger) *NotificationService {
	return &NotificationService{scope: txScope, logger: logger}
}

// Notify creates or refreshes the unread notification for the dedup key.
// A concurrent create racing on the unique index is retried as a refresh.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, notifType notification.Type, subjectID uuid.UUID, severity notification.Severity, title, message string) error {
	err := s.upsert(ctx, userID, notifType, subjectID, severity, title, message)
	if errors.Is(err, shared.ErrAlreadyExists) {
		// lost the insert race; the row exists now, refresh it
		err = s.upsert(ctx, userID, notifType, subjectID, severity, title, message)
	}
	return err
}

func (s *NotificationService) upsert(ctx context.Context, userID uuid.UUID, notifType notification.Type, subjectID uuid.UUID, severity notification.Severity, title, message string) error {
	return s.scope.Execute(ctx, func(repos scope.Repositories) error {
		existing, err := repos.Notifications().FindUnread(ctx, userID, notifType, subjectID)
		switch {
		case err == nil:
			existing.Refresh(severity, title, message)
			return repos.Notifications().Save(ctx, existing)
		case shared.IsNotFound(err):
			created, err := notification.NewNotification(userID, notifType, subjectID, severity, title, message)
			if err != nil {
				return err
			}
			return repos.Notifications().Save(ctx, created)
		default:
			return err
		}
	})
}

// MarkRead flags one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos scope.Repositories) error {
		n, err := repos.Notifications().FindByID(ctx, id)
		if err != nil {
			return err
		}
		n.MarkRead()
		return repos.Notifications().Save(ctx, n)
	})
}

// MarkAllRead flags every unread notification of a user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		count, err = repos.Notifications().MarkAllRead(ctx, userID)
		return err
	})
	return count, err
}

// UnreadCount returns a user's unread notification count
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		count, err = repos.Notifications().CountUnread(ctx, userID)
		return err
	})
	return count, err
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, onlyUnread bool, filter shared.Filter) ([]notification.Notification, error) {
	var items []notification.Notification
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		items, err = repos.Notifications().FindByUser(ctx, userID, onlyUnread, filter)
		return err
	})
	return items, err
}

// CleanupOlderThan deletes read notifications older than the retention
// period and returns how many were removed
func (s *NotificationService) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	var removed int64
	err := s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		removed, err = repos.Notifications().DeleteReadOlderThan(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("notifications cleaned up",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return removed, nil
}
