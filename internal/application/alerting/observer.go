package alerting

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/ledgercore/backend/internal/application/inventory"
	appnotif "github.com/ledgercore/backend/internal/application/notification"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertIntent is the pure output of evaluating a stock mutation: what to
// tell whom about, not yet persisted anywhere
type AlertIntent struct {
	Type      notification.Type
	SubjectID uuid.UUID
	Severity  notification.Severity
	Title     string
	Message   string
}

// EvaluateMutation decides which alerts a committed stock mutation
// warrants. The function is pure: it reads only the mutation snapshot,
// so the decision is testable without storage and alerts only ever
// describe committed state.
func EvaluateMutation(m appinv.Mutation) []AlertIntent {
	var intents []AlertIntent

	// low stock fires on the downward crossing of the threshold, not on
	// every movement below it
	if m.MinStock.IsPositive() && m.Delta().IsNegative() {
		before := m.AggregateQuantity.Sub(m.Delta())
		if m.AggregateQuantity.LessThanOrEqual(m.MinStock) && before.GreaterThan(m.MinStock) {
			intents = append(intents, AlertIntent{
				Type:      notification.TypeLowStock,
				SubjectID: m.New.ProductID,
				Severity:  notification.SeverityWarning,
				Title:     "Low stock",
				Message: fmt.Sprintf("Product %s in warehouse %s is down to %s (threshold %s)",
					m.New.ProductID, m.New.WarehouseID, m.AggregateQuantity, m.MinStock),
			})
		}
	}

	if m.New.Quantity.IsNegative() {
		intents = append(intents, AlertIntent{
			Type:      notification.TypeNegativeLot,
			SubjectID: m.New.LotID,
			Severity:  notification.SeverityCritical,
			Title:     "Negative stock",
			Message: fmt.Sprintf("Lot %s (batch %q) of product %s went negative: %s",
				m.New.LotID, m.New.BatchNumber, m.New.ProductID, m.New.Quantity),
		})
	}

	// a mutation touching an already-expired lot that still holds stock
	// is flagged immediately; the periodic sweep only catches lots that
	// expire between mutations
	if m.New.ExpiryDate != nil && m.New.ExpiryDate.Before(time.Now()) && m.New.Quantity.IsPositive() {
		intents = append(intents, AlertIntent{
			Type:      notification.TypeExpired,
			SubjectID: m.New.LotID,
			Severity:  notification.SeverityCritical,
			Title:     "Batch expired",
			Message: fmt.Sprintf("Batch %q of product %s expired on %s with %s still in stock",
				m.New.BatchNumber, m.New.ProductID, m.New.ExpiryDate.Format("2006-01-02"), m.New.Quantity),
		})
	}

	return intents
}

// Observer turns committed stock mutations into notifications for the
// configured recipients. It runs after commit; failures are logged by
// the stock service and never affect the originating transaction.
type Observer struct {
	notifier   *appnotif.NotificationService
	recipients []uuid.UUID
	logger     *zap.Logger
}

// NewObserver creates an alerting observer delivering to the given users
func NewObserver(notifier *appnotif.NotificationService, recipients []uuid.UUID, logger *zap.Logger) *Observer {
	return &Observer{
		notifier:   notifier,
		recipients: recipients,
		logger:     logger,
	}
}

// OnStockMutation evaluates the mutation and stores any resulting alerts
func (o *Observer) OnStockMutation(ctx context.Context, mutation appinv.Mutation) error {
	intents := EvaluateMutation(mutation)
	for _, intent := range intents {
		for _, userID := range o.recipients {
			if err := o.notifier.Notify(ctx, userID, intent.Type, intent.SubjectID, intent.Severity, intent.Title, intent.Message); err != nil {
				return err
			}
		}
		o.logger.Debug("alert raised",
			zap.String("type", intent.Type.String()),
			zap.String("subject_id", intent.SubjectID.String()),
		)
	}
	return nil
}

var _ appinv.MutationObserver = (*Observer)(nil)
