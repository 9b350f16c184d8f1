package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shipping"
)

// ItemRequest is one submitted order line.
type ItemRequest struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Request carries everything a client submits at checkout. Totals are
// untrusted input and are recomputed server-side.
type Request struct {
	OrderID        string            `json:"order_id"`
	IdempotencyKey string            `json:"-"`
	Items          []ItemRequest     `json:"items"`
	DiscountTotal  decimal.Decimal   `json:"discount_total"`
	ShippingTotal  decimal.Decimal   `json:"shipping_total"`
	TaxTotal       decimal.Decimal   `json:"tax_total"`
	GrandTotal     decimal.Decimal   `json:"grand_total"`
	Currency       string            `json:"currency"`
	ReferralCode   string            `json:"referral_code"`
	PurchaserID    *uuid.UUID        `json:"purchaser_id"`
	Customer       commerce.Customer `json:"customer"`
	Address        shipping.Address  `json:"shipping_address"`
	Estimate       shipping.Estimate `json:"shipping_estimate"`
}

// Result is the acknowledged outcome of a checkout. It is stored verbatim in
// the idempotency record so a retransmission replays the same response.
type Result struct {
	OrderID    string                        `json:"order_id"`
	Status     order.Status                  `json:"status"`
	Stage      Stage                         `json:"stage"`
	Stages     []StageResult                 `json:"stages"`
	TaxTotal   decimal.Decimal               `json:"tax_total"`
	GrandTotal decimal.Decimal               `json:"grand_total"`
	Currency   string                        `json:"currency"`
	Forward    *commerce.ForwardResult       `json:"forward,omitempty"`
	Commission *appreferral.CommissionResult `json:"commission,omitempty"`
	// Replayed marks a response served from the idempotency record rather
	// than a fresh pipeline run. Not persisted.
	Replayed bool `json:"-"`
}

// CancelOutcome reports a compensating cancellation.
type CancelOutcome struct {
	OrderID      string                 `json:"order_id"`
	Status       order.Status           `json:"status"`
	VendorCancel *commerce.CancelResult `json:"vendor_cancel,omitempty"`
}
