package notification

import (
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Type classifies what a notification is about
type Type string

const (
	TypeLowStock     Type = "LOW_STOCK"
	TypeExpired      Type = "EXPIRED"
	TypeExpiringSoon Type = "EXPIRING_SOON"
	TypeNegativeLot  Type = "NEGATIVE_STOCK"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeLowStock, TypeExpired, TypeExpiringSoon, TypeNegativeLot:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// Severity ranks how urgent a notification is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notification is one alert delivered to a user. At most one unread
// notification exists per (user, type, subject); repeated alerts about
// the same subject refresh the existing unread row instead of piling up.
// The dedup key is enforced by a partial unique index on unread rows.
type Notification struct {
	shared.BaseEntity
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_unread,priority:1"`
	Type   Type      `gorm:"type:varchar(32);not null;index:idx_notification_unread,priority:2"`
	// SubjectID identifies what the alert is about, usually a product or lot
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_unread,priority:3"`
	Severity  Severity  `gorm:"type:varchar(16);not null;default:'info'"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Message   string    `gorm:"type:text;not null"`
	Read      bool      `gorm:"not null;default:false"`
	ReadAt    *time.Time
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates an unread notification
func NewNotification(userID uuid.UUID, notifType Type, subjectID uuid.UUID, severity Severity, title, message string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !notifType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown notification type: "+string(notifType))
	}
	if subjectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Notification title cannot be empty")
	}

	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Type:       notifType,
		SubjectID:  subjectID,
		Severity:   severity,
		Title:      title,
		Message:    message,
		Read:       false,
	}, nil
}

// MarkRead flags the notification as read. Reading is idempotent.
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	n.UpdatedAt = now
}

// Refresh updates the message of an existing unread notification so a
// repeated alert carries the latest numbers without creating a new row
func (n *Notification) Refresh(severity Severity, title, message string) {
	n.Severity = severity
	n.Title = title
	n.Message = message
	n.UpdatedAt = time.Now()
}
