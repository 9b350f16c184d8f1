package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/backend/internal/domain/shared"
)

func validAddress() Address {
	return Address{
		Street1:    "123 Main St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
}

func validEstimate(addr Address) Estimate {
	return Estimate{
		CarrierID:          "fedex",
		ServiceCode:        "FEDEX_GROUND",
		Rate:               decimal.NewFromFloat(10.00),
		Currency:           "USD",
		DeliveryDays:       5,
		AddressFingerprint: Fingerprint(addr),
	}
}

func TestValidateEstimate(t *testing.T) {
	t.Run("accepts a matching estimate", func(t *testing.T) {
		addr := validAddress()
		est, err := ValidateEstimate(addr, validEstimate(addr), decimal.NewFromFloat(10.00))
		require.NoError(t, err)
		assert.Equal(t, "fedex", est.CarrierID)
	})

	t.Run("tolerates sub-cent drift in the shipping total", func(t *testing.T) {
		addr := validAddress()
		_, err := ValidateEstimate(addr, validEstimate(addr), decimal.NewFromFloat(10.01))
		assert.NoError(t, err)
	})

	t.Run("rejects incomplete address", func(t *testing.T) {
		addr := Address{Street1: "123 Main St", City: "Austin"}
		_, err := ValidateEstimate(addr, validEstimate(validAddress()), decimal.NewFromFloat(10.00))
		assert.ErrorIs(t, err, shared.ErrInvalidAddress)
	})

	t.Run("rejects estimate without carrier or service", func(t *testing.T) {
		addr := validAddress()
		est := validEstimate(addr)
		est.CarrierID = ""
		est.ServiceCode = ""
		_, err := ValidateEstimate(addr, est, decimal.NewFromFloat(10.00))
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
	})

	t.Run("rejects estimate without positive rate", func(t *testing.T) {
		addr := validAddress()
		est := validEstimate(addr)
		est.Rate = decimal.Zero
		_, err := ValidateEstimate(addr, est, decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
	})

	t.Run("rejects estimate without fingerprint", func(t *testing.T) {
		addr := validAddress()
		est := validEstimate(addr)
		est.AddressFingerprint = ""
		_, err := ValidateEstimate(addr, est, decimal.NewFromFloat(10.00))
		assert.ErrorIs(t, err, shared.ErrInvalidRate)
	})

	t.Run("rejects estimate quoted against a different address", func(t *testing.T) {
		quoted := validAddress()
		est := validEstimate(quoted)

		current := quoted
		current.PostalCode = "78702"

		_, err := ValidateEstimate(current, est, decimal.NewFromFloat(10.00))
		assert.ErrorIs(t, err, shared.ErrRateAddressMismatch)
	})

	t.Run("rejects shipping total that drifts beyond a cent", func(t *testing.T) {
		addr := validAddress()
		_, err := ValidateEstimate(addr, validEstimate(addr), decimal.NewFromFloat(10.05))
		assert.ErrorIs(t, err, shared.ErrRateTotalMismatch)
	})
}
