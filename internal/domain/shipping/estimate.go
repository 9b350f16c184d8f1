package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/shared"
)

// rateTolerance is the maximum allowed drift between a quoted rate and the
// client-submitted shipping total, in currency units.
var rateTolerance = decimal.NewFromFloat(0.01)

// Estimate is a shipping rate quoted by the rate provider for one address.
// The AddressFingerprint binds the quote to the exact address that produced
// it; mutating the address invalidates the estimate.
type Estimate struct {
	CarrierID          string          `json:"carrier_id"`
	ServiceCode        string          `json:"service_code"`
	ServiceType        string          `json:"service_type,omitempty"`
	Rate               decimal.Decimal `json:"rate"`
	Currency           string          `json:"currency"`
	DeliveryDays       int             `json:"delivery_days,omitempty"`
	AddressFingerprint string          `json:"address_fingerprint"`
}

// ValidateEstimate checks a previously-quoted estimate against the current
// address and the client-submitted shipping total. It is pure: every failure
// mode is deterministic from its input.
func ValidateEstimate(addr Address, est Estimate, shippingTotal decimal.Decimal) (Estimate, error) {
	if !addr.IsComplete() {
		return Estimate{}, shared.ErrInvalidAddress
	}
	if (est.CarrierID == "" && est.ServiceCode == "") || !est.Rate.IsPositive() || est.AddressFingerprint == "" {
		return Estimate{}, shared.ErrInvalidRate
	}
	if est.AddressFingerprint != Fingerprint(addr) {
		return Estimate{}, shared.ErrRateAddressMismatch
	}
	if est.Rate.Sub(shippingTotal).Abs().GreaterThan(rateTolerance) {
		return Estimate{}, shared.ErrRateTotalMismatch
	}
	return est, nil
}
