package alerting

import (
	"context"
	"fmt"
	"time"

	appnotif "github.com/ledgercore/backend/internal/application/notification"
	"github.com/ledgercore/backend/internal/application/scope"
	"github.com/ledgercore/backend/internal/domain/catalog"
	"github.com/ledgercore/backend/internal/domain/inventory"
	"github.com/ledgercore/backend/internal/domain/notification"
	"github.com/ledgercore/backend/internal/domain/partner"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Advisory lock keys for the periodic sweeps. One runner per sweep
// across all processes sharing the database.
const (
	lockKeyExpirySweep   int64 = 430011
	lockKeyLowStockSweep int64 = 430012
	lockKeyCleanupSweep  int64 = 430013
)

// AdvisoryLocker takes database-level locks so that concurrent processes
// do not run the same sweep twice. TryAcquire returns acquired=false
// without blocking when another holder exists.
type AdvisoryLocker interface {
	TryAcquire(ctx context.Context, key int64) (release func(), acquired bool, err error)
}

// SweepConfig tunes the periodic sweeps
type SweepConfig struct {
	// ExpiryWindow is how far ahead the expiring-soon sweep looks
	ExpiryWindow time.Duration
	// NotificationRetention is how long read notifications are kept
	NotificationRetention time.Duration
	// Recipients are the users who receive sweep alerts
	Recipients []uuid.UUID
}

// SweepReport counts what one sweep run found
type SweepReport struct {
	ExpiredLots  int
	ExpiringLots int
	LowStock     int
	CleanedUp    int64
	Skipped      bool
}

// SweepService runs the periodic scans that event-driven alerting cannot
// cover: lots crossing their expiry date by the passage of time, the
// low-stock state of the whole catalog, and notification retention.
type SweepService struct {
	scope    scope.TransactionScope
	notifier *appnotif.NotificationService
	locker   AdvisoryLocker
	config   SweepConfig
	logger   *zap.Logger
}

// NewSweepService creates a sweep service
func NewSweepService(txScope scope.TransactionScope, notifier *appnotif.NotificationService, locker AdvisoryLocker, config SweepConfig, logger *zap.Logger) *SweepService {
	return &SweepService{
		scope:    txScope,
		notifier: notifier,
		locker:   locker,
		config:   config,
		logger:   logger,
	}
}

// SweepExpiry alerts on expired lots still holding stock and on lots
// expiring within the configured window. Returns a skipped report when
// another process holds the sweep lock.
func (s *SweepService) SweepExpiry(ctx context.Context) (*SweepReport, error) {
	release, acquired, err := s.locker.TryAcquire(ctx, lockKeyExpirySweep)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &SweepReport{Skipped: true}, nil
	}
	defer release()

	var expired, expiring []inventory.StockLot
	err = s.scope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		expired, err = repos.Lots().FindExpiredWithStock(ctx)
		if err != nil {
			return err
		}
		expiring, err = repos.Lots().FindExpiringWithin(ctx, s.config.ExpiryWindow)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range expired {
		lot := &expired[i]
		s.deliver(ctx, notification.TypeExpired, lot.ID, notification.SeverityCritical,
			"Batch expired",
			fmt.Sprintf("Batch %q of product %s expired on %s with %s still in stock",
				lot.BatchNumber, lot.ProductID, lot.ExpiryDate.Format("2006-01-02"), lot.Quantity))
	}
	for i := range expiring {
		lot := &expiring[i]
		s.deliver(ctx, notification.TypeExpiringSoon, lot.ID, notification.SeverityWarning,
			"Batch expiring soon",
			fmt.Sprintf("Batch %q of product %s expires on %s with %s in stock",
				lot.BatchNumber, lot.ProductID, lot.ExpiryDate.Format("2006-01-02"), lot.Quantity))
	}

	report := &SweepReport{ExpiredLots: len(expired), ExpiringLots: len(expiring)}
	s.logger.Info("expiry sweep finished",
		zap.Int("expired", report.ExpiredLots),
		zap.Int("expiring", report.ExpiringLots),
	)
	return report, nil
}

// SweepLowStock scans every product with a threshold against its
// per-warehouse on-hand quantity. The sweep catches states the
// event-driven observer missed (threshold edits, restored backups).
func (s *SweepService) SweepLowStock(ctx context.Context) (*SweepReport, error) {
	release, acquired, err := s.locker.TryAcquire(ctx, lockKeyLowStockSweep)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &SweepReport{Skipped: true}, nil
	}
	defer release()

	type lowHit struct {
		product   catalog.Product
		warehouse partner.Warehouse
		quantity  string
	}
	var hits []lowHit

	err = s.scope.Execute(ctx, func(repos scope.Repositories) error {
		products, err := repos.Products().FindWithLowStockThreshold(ctx)
		if err != nil {
			return err
		}
		warehouses, err := repos.Warehouses().FindAllActive(ctx)
		if err != nil {
			return err
		}
		for i := range products {
			for j := range warehouses {
				quantity, err := repos.Lots().SumQuantityByWarehouseAndProduct(ctx, warehouses[j].ID, products[i].ID)
				if err != nil {
					return err
				}
				if quantity.LessThanOrEqual(products[i].MinStock) {
					hits = append(hits, lowHit{product: products[i], warehouse: warehouses[j], quantity: quantity.String()})
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, hit := range hits {
		s.deliver(ctx, notification.TypeLowStock, hit.product.ID, notification.SeverityWarning,
			"Low stock",
			fmt.Sprintf("Product %s in warehouse %s is at %s (threshold %s)",
				hit.product.Name, hit.warehouse.Name, hit.quantity, hit.product.MinStock))
	}

	report := &SweepReport{LowStock: len(hits)}
	s.logger.Info("low stock sweep finished", zap.Int("hits", report.LowStock))
	return report, nil
}

// SweepCleanup removes read notifications past the retention period
func (s *SweepService) SweepCleanup(ctx context.Context) (*SweepReport, error) {
	release, acquired, err := s.locker.TryAcquire(ctx, lockKeyCleanupSweep)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &SweepReport{Skipped: true}, nil
	}
	defer release()

	removed, err := s.notifier.CleanupOlderThan(ctx, s.config.NotificationRetention)
	if err != nil {
		return nil, err
	}
	return &SweepReport{CleanedUp: removed}, nil
}

// RunAll executes every sweep once, merging the reports. Individual
// sweep failures abort the run.
func (s *SweepService) RunAll(ctx context.Context) (*SweepReport, error) {
	merged := &SweepReport{}

	expiry, err := s.SweepExpiry(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.SweepLowStock(ctx)
	if err != nil {
		return nil, err
	}
	cleanup, err := s.SweepCleanup(ctx)
	if err != nil {
		return nil, err
	}

	merged.ExpiredLots = expiry.ExpiredLots
	merged.ExpiringLots = expiry.ExpiringLots
	merged.LowStock = lowStock.LowStock
	merged.CleanedUp = cleanup.CleanedUp
	merged.Skipped = expiry.Skipped && lowStock.Skipped && cleanup.Skipped
	return merged, nil
}

func (s *SweepService) deliver(ctx context.Context, notifType notification.Type, subjectID uuid.UUID, severity notification.Severity, title, message string) {
	for _, userID := range s.config.Recipients {
		if err := s.notifier.Notify(ctx, userID, notifType, subjectID, severity, title, message); err != nil {
			s.logger.Error("sweep notification failed",
				zap.String("type", notifType.String()),
				zap.String("subject_id", subjectID.String()),
				zap.Error(err),
			)
		}
	}
}
