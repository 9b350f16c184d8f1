package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/domain/shipping"
)

func testItems(t *testing.T) []Item {
	t.Helper()
	a, err := NewItem("pep-001", "BPC-157 5mg", 2, decimal.NewFromFloat(40.00))
	require.NoError(t, err)
	b, err := NewItem("pep-002", "TB-500 5mg", 1, decimal.NewFromFloat(20.00))
	require.NoError(t, err)
	return []Item{a, b}
}

func TestNewItem(t *testing.T) {
	t.Run("computes line total", func(t *testing.T) {
		item, err := NewItem("pep-001", "BPC-157 5mg", 3, decimal.NewFromFloat(19.99))
		require.NoError(t, err)
		assert.True(t, item.LineTotal.Equal(decimal.NewFromFloat(59.97)))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewItem("pep-001", "BPC-157 5mg", 0, decimal.NewFromFloat(19.99))
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewItem("pep-001", "BPC-157 5mg", 1, decimal.NewFromFloat(-1))
		assert.Error(t, err)
	})
}

func TestNewOrder(t *testing.T) {
	t.Run("recomputes totals server-side", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.Zero, decimal.NewFromFloat(10.00), decimal.NewFromFloat(8.25), "USD")
		require.NoError(t, err)

		assert.True(t, o.ItemsSubtotal.Equal(decimal.NewFromFloat(100.00)), "subtotal: %s", o.ItemsSubtotal)
		assert.True(t, o.GrandTotal.Equal(decimal.NewFromFloat(118.25)), "grand total: %s", o.GrandTotal)
		assert.Equal(t, StatusPending, o.Status)
		assert.NotEmpty(t, o.ID)
	})

	t.Run("rejects empty orders", func(t *testing.T) {
		_, err := New("", nil, decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		assert.Error(t, err)
	})

	t.Run("applies discounts in the grand total", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.NewFromFloat(5.00), decimal.NewFromFloat(10.00), decimal.Zero, "USD")
		require.NoError(t, err)
		assert.True(t, o.GrandTotal.Equal(decimal.NewFromFloat(105.00)))
	})
}

func TestVerifyGrandTotal(t *testing.T) {
	o, err := New("", testItems(t), decimal.Zero, decimal.NewFromFloat(10.00), decimal.NewFromFloat(8.25), "USD")
	require.NoError(t, err)

	t.Run("accepts the exact total", func(t *testing.T) {
		assert.NoError(t, o.VerifyGrandTotal(decimal.NewFromFloat(118.25)))
	})

	t.Run("accepts one cent of drift", func(t *testing.T) {
		assert.NoError(t, o.VerifyGrandTotal(decimal.NewFromFloat(118.26)))
		assert.NoError(t, o.VerifyGrandTotal(decimal.NewFromFloat(118.24)))
	})

	t.Run("rejects totals drifting beyond a cent", func(t *testing.T) {
		assert.ErrorIs(t, o.VerifyGrandTotal(decimal.NewFromFloat(118.27)), shared.ErrTotalsMismatch)
		assert.ErrorIs(t, o.VerifyGrandTotal(decimal.NewFromFloat(117.25)), shared.ErrTotalsMismatch)
	})
}

func TestSetTaxTotal(t *testing.T) {
	o, err := New("", testItems(t), decimal.Zero, decimal.NewFromFloat(10.00), decimal.Zero, "USD")
	require.NoError(t, err)
	require.True(t, o.GrandTotal.Equal(decimal.NewFromFloat(110.00)))

	require.NoError(t, o.SetTaxTotal(decimal.NewFromFloat(8.25)))
	assert.True(t, o.GrandTotal.Equal(decimal.NewFromFloat(118.25)))

	assert.Error(t, o.SetTaxTotal(decimal.NewFromFloat(-1)))
}

func TestStatusTransitions(t *testing.T) {
	t.Run("happy path pending to completed", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		require.NoError(t, err)

		require.NoError(t, o.MarkProcessing())
		require.NoError(t, o.MarkCompleted())
		assert.NotNil(t, o.CompletedAt)
	})

	t.Run("cancel records a reason and defaults it", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		require.NoError(t, err)

		require.NoError(t, o.Cancel(""))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "payment failed", o.CancelReason)
		assert.NotNil(t, o.CancelledAt)
	})

	t.Run("completed orders cannot be cancelled", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		require.NoError(t, err)
		require.NoError(t, o.MarkProcessing())
		require.NoError(t, o.MarkCompleted())

		assert.Error(t, o.Cancel("too late"))
	})

	t.Run("trash is terminal", func(t *testing.T) {
		o, err := New("", testItems(t), decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		require.NoError(t, err)
		require.NoError(t, o.Trash())
		assert.Error(t, o.MarkProcessing())
	})
}

func TestOrderFingerprint(t *testing.T) {
	addr := shipping.Address{Street1: "123 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
	est := shipping.Estimate{CarrierID: "fedex", ServiceCode: "FEDEX_GROUND", Rate: decimal.NewFromFloat(10.00), AddressFingerprint: shipping.Fingerprint(addr)}

	build := func(t *testing.T, code string) *Order {
		o, err := New("", testItems(t), decimal.Zero, decimal.NewFromFloat(10.00), decimal.Zero, "USD")
		require.NoError(t, err)
		o.ReferralCode = code
		o.SetShipping(addr, est)
		return o
	}

	t.Run("same content yields same fingerprint", func(t *testing.T) {
		assert.Equal(t, build(t, "ABC123").Fingerprint(), build(t, "ABC123").Fingerprint())
	})

	t.Run("referral code casing does not change the fingerprint", func(t *testing.T) {
		assert.Equal(t, build(t, "abc123").Fingerprint(), build(t, "ABC123").Fingerprint())
	})

	t.Run("different referral code changes the fingerprint", func(t *testing.T) {
		assert.NotEqual(t, build(t, "ABC123").Fingerprint(), build(t, "XYZ789").Fingerprint())
	})

	t.Run("item order does not change the fingerprint", func(t *testing.T) {
		a := build(t, "ABC123")
		b := build(t, "ABC123")
		b.Items[0], b.Items[1] = b.Items[1], b.Items[0]
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("different shipping address changes the fingerprint", func(t *testing.T) {
		a := build(t, "ABC123")
		b := build(t, "ABC123")
		other := addr
		other.City = "Dallas"
		b.SetShipping(other, est)
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})
}
