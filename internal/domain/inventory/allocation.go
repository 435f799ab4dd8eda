package inventory

import (
	"sort"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationPolicy selects which lots a withdrawal without a pinned batch
// draws from. The policy is pluggable; expiry-first is the default.
type AllocationPolicy string

const (
	// AllocationExpiryFirst consumes lots with the earliest expiry date
	// first, falling back to the earliest created lot.
	AllocationExpiryFirst AllocationPolicy = "EXPIRY_FIRST"
	// AllocationFIFO consumes lots strictly in creation order.
	AllocationFIFO AllocationPolicy = "FIFO"
	// AllocationSpecified consumes caller-selected lots in the given order.
	AllocationSpecified AllocationPolicy = "SPECIFIED"
)

// IsValid checks if the policy is known
func (p AllocationPolicy) IsValid() bool {
	switch p {
	case AllocationExpiryFirst, AllocationFIFO, AllocationSpecified:
		return true
	}
	return false
}

// LotAllocation is one lot's share of a multi-lot withdrawal
type LotAllocation struct {
	LotID       uuid.UUID
	BatchNumber string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	Cost        decimal.Decimal
}

// AllocationResult is the outcome of allocating a requested quantity
// across candidate lots. ShortBy is non-zero when stock was exhausted.
type AllocationResult struct {
	Allocations    []LotAllocation
	TotalAllocated decimal.Decimal
	TotalCost      decimal.Decimal
	ShortBy        decimal.Decimal
	Fulfilled      bool
}

// WeightedUnitCost returns total cost / total allocated, rounded to 4 places
func (r *AllocationResult) WeightedUnitCost() decimal.Decimal {
	if r.TotalAllocated.IsZero() {
		return decimal.Zero
	}
	return r.TotalCost.Div(r.TotalAllocated).Round(4)
}

// AllocationStrategy decides which lots satisfy a withdrawal
type AllocationStrategy interface {
	// Policy returns the allocation policy this strategy implements
	Policy() AllocationPolicy
	// Allocate splits the requested quantity across the candidate lots.
	// Lots are not mutated; the caller applies the resulting deductions.
	Allocate(requested decimal.Decimal, lots []StockLot) (*AllocationResult, error)
}

// ExpiryFirstStrategy consumes soonest-expiring lots first, then oldest.
// Lots without an expiry date come after all dated lots.
type ExpiryFirstStrategy struct{}

// NewExpiryFirstStrategy creates the default allocation strategy
func NewExpiryFirstStrategy() *ExpiryFirstStrategy {
	return &ExpiryFirstStrategy{}
}

// Policy returns the allocation policy
func (s *ExpiryFirstStrategy) Policy() AllocationPolicy {
	return AllocationExpiryFirst
}

// Allocate splits the requested quantity across lots, earliest expiry first
func (s *ExpiryFirstStrategy) Allocate(requested decimal.Decimal, lots []StockLot) (*AllocationResult, error) {
	candidates, err := availableLots(requested, lots)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ExpiryDate != nil && b.ExpiryDate != nil {
			if !a.ExpiryDate.Equal(*b.ExpiryDate) {
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		} else if a.ExpiryDate != nil {
			return true
		} else if b.ExpiryDate != nil {
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return consumeInOrder(requested, candidates), nil
}

// FIFOStrategy consumes lots strictly in creation order
type FIFOStrategy struct{}

// NewFIFOStrategy creates a FIFO allocation strategy
func NewFIFOStrategy() *FIFOStrategy {
	return &FIFOStrategy{}
}

// Policy returns the allocation policy
func (s *FIFOStrategy) Policy() AllocationPolicy {
	return AllocationFIFO
}

// Allocate splits the requested quantity across lots, oldest lot first
func (s *FIFOStrategy) Allocate(requested decimal.Decimal, lots []StockLot) (*AllocationResult, error) {
	candidates, err := availableLots(requested, lots)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	return consumeInOrder(requested, candidates), nil
}

// SpecifiedLotsStrategy consumes the caller's chosen lots in order
type SpecifiedLotsStrategy struct {
	lotIDs []uuid.UUID
}

// NewSpecifiedLotsStrategy creates a strategy pinned to specific lots
func NewSpecifiedLotsStrategy(lotIDs []uuid.UUID) *SpecifiedLotsStrategy {
	return &SpecifiedLotsStrategy{lotIDs: lotIDs}
}

// Policy returns the allocation policy
func (s *SpecifiedLotsStrategy) Policy() AllocationPolicy {
	return AllocationSpecified
}

// Allocate draws from the specified lots in the given order
func (s *SpecifiedLotsStrategy) Allocate(requested decimal.Decimal, lots []StockLot) (*AllocationResult, error) {
	if len(s.lotIDs) == 0 {
		return nil, shared.NewDomainError("NO_LOTS_SPECIFIED", "Specified allocation requires lot IDs")
	}
	candidates, err := availableLots(requested, lots)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]StockLot, len(candidates))
	for _, lot := range candidates {
		byID[lot.ID] = lot
	}

	ordered := make([]StockLot, 0, len(s.lotIDs))
	for _, id := range s.lotIDs {
		if lot, ok := byID[id]; ok {
			ordered = append(ordered, lot)
			delete(byID, id)
		}
	}

	return consumeInOrder(requested, ordered), nil
}

// StrategyFor returns the strategy for a policy. Specified policies need
// lot IDs; the zero policy falls back to expiry-first.
func StrategyFor(policy AllocationPolicy, lotIDs []uuid.UUID) (AllocationStrategy, error) {
	switch policy {
	case AllocationExpiryFirst, "":
		return NewExpiryFirstStrategy(), nil
	case AllocationFIFO:
		return NewFIFOStrategy(), nil
	case AllocationSpecified:
		if len(lotIDs) == 0 {
			return nil, shared.NewDomainError("NO_LOTS_SPECIFIED", "Specified allocation requires lot IDs")
		}
		return NewSpecifiedLotsStrategy(lotIDs), nil
	default:
		return nil, shared.NewDomainError("INVALID_POLICY", "Unknown allocation policy: "+string(policy))
	}
}

func availableLots(requested decimal.Decimal, lots []StockLot) ([]StockLot, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	available := make([]StockLot, 0, len(lots))
	for _, lot := range lots {
		if lot.IsAvailable() {
			available = append(available, lot)
		}
	}
	return available, nil
}

func consumeInOrder(requested decimal.Decimal, lots []StockLot) *AllocationResult {
	result := &AllocationResult{
		Allocations:    make([]LotAllocation, 0, len(lots)),
		TotalAllocated: decimal.Zero,
		TotalCost:      decimal.Zero,
	}

	remaining := requested
	for _, lot := range lots {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, lot.Quantity)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		cost := take.Mul(lot.UnitCost)
		result.Allocations = append(result.Allocations, LotAllocation{
			LotID:       lot.ID,
			BatchNumber: lot.BatchNumber,
			Quantity:    take,
			UnitCost:    lot.UnitCost,
			Cost:        cost,
		})
		result.TotalAllocated = result.TotalAllocated.Add(take)
		result.TotalCost = result.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	result.ShortBy = remaining
	result.Fulfilled = remaining.IsZero()
	return result
}
