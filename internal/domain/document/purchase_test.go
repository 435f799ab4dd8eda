package document

import (
	"testing"
	"time"

	"github.com/ledgercore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftPurchase(t *testing.T) *Purchase {
	t.Helper()
	p, err := NewPurchase("PO-001", uuid.New(), uuid.New(), time.Now(), uuid.New())
	require.NoError(t, err)
	return p
}

func TestNewPurchase(t *testing.T) {
	t.Run("creates draft", func(t *testing.T) {
		p := draftPurchase(t)
		assert.Equal(t, StatusDraft, p.Status)
		assert.True(t, p.TotalAmount.IsZero())
		assert.Empty(t, p.Lines)
		assert.NotNil(t, p.CreatedBy)
	})

	t.Run("rejects empty number", func(t *testing.T) {
		_, err := NewPurchase("", uuid.New(), uuid.New(), time.Now(), uuid.Nil)
		require.Error(t, err)
	})

	t.Run("rejects empty supplier", func(t *testing.T) {
		_, err := NewPurchase("PO-001", uuid.Nil, uuid.New(), time.Now(), uuid.Nil)
		require.Error(t, err)
	})
}

func TestPurchaseAddLine(t *testing.T) {
	t.Run("recalculates totals with tax", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.RequireFromString("0.19"), "B-1", nil))
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(2), decimal.NewFromInt(25), decimal.Zero, "", nil))

		// net = 50 + 50 = 100, tax = 50*0.19 = 9.50
		assert.True(t, p.NetAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, p.TaxAmount.Equal(decimal.RequireFromString("9.5")))
		assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("109.5")))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		p := draftPurchase(t)
		err := p.AddLine(uuid.New(), decimal.Zero, decimal.NewFromInt(5), decimal.Zero, "", nil)
		require.Error(t, err)
	})

	t.Run("rejects lines once submitted", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil))
		require.NoError(t, p.Submit())

		err := p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "draft")
	})
}

func TestPurchaseApprove(t *testing.T) {
	t.Run("approves pending purchase", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil))
		require.NoError(t, p.Submit())
		require.NoError(t, p.Approve())
		assert.Equal(t, StatusApproved, p.Status)
	})

	t.Run("rejects empty purchase", func(t *testing.T) {
		p := draftPurchase(t)
		err := p.Approve()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no lines")
	})

	t.Run("second approval is a duplicate posting", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil))
		require.NoError(t, p.Approve())

		err := p.Approve()
		require.Error(t, err)

		var dup *shared.DuplicatePostingError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, shared.ReferencePurchase, dup.DocumentKind)
		assert.Equal(t, p.ID, dup.DocumentID)
	})

	t.Run("approval after completion is also a duplicate", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil))
		require.NoError(t, p.Approve())
		require.NoError(t, p.Complete())

		var dup *shared.DuplicatePostingError
		require.ErrorAs(t, p.Approve(), &dup)
	})
}

func TestPurchaseCancel(t *testing.T) {
	t.Run("cancels unposted purchase", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.Cancel())
		assert.Equal(t, StatusCancelled, p.Status)
	})

	t.Run("cannot cancel after posting", func(t *testing.T) {
		p := draftPurchase(t)
		require.NoError(t, p.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, "", nil))
		require.NoError(t, p.Approve())
		require.Error(t, p.Cancel())
	})
}

func TestPurchaseReference(t *testing.T) {
	p := draftPurchase(t)
	ref := p.Reference()
	assert.Equal(t, shared.ReferencePurchase, ref.Kind)
	assert.Equal(t, p.ID, ref.ID)
}
