package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/order"
)

// Platform integration errors
var (
	// ErrPlatformNotConfigured indicates the commerce platform has no credentials
	ErrPlatformNotConfigured = errors.New("commerce platform is not configured")
	// ErrPlatformUnavailable indicates the platform could not be reached
	ErrPlatformUnavailable = errors.New("commerce platform is unavailable")
	// ErrPlatformRequestFailed indicates the platform rejected the request
	ErrPlatformRequestFailed = errors.New("commerce platform request failed")
	// ErrPlatformRateLimited indicates the platform rate-limited the request
	ErrPlatformRateLimited = errors.New("commerce platform rate limited the request")
	// ErrTaxUnsupported indicates the platform exposes no tax calculation endpoint
	ErrTaxUnsupported = errors.New("tax calculation is not supported by the commerce platform")
	// ErrAddressRequired indicates tax calculation was attempted without a shipping address
	ErrAddressRequired = errors.New("a shipping address is required to calculate tax")
)

// StatusError wraps a platform failure, preserving the upstream HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("commerce platform returned HTTP %d", e.StatusCode)
}

// UpstreamStatus extracts the HTTP status from an error chain, or 0.
func UpstreamStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Customer identifies the purchaser on forwarded orders.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// ForwardStatus discriminates the outcome of a forward attempt.
type ForwardStatus string

const (
	// ForwardStatusForwarded means the vendor accepted the order
	ForwardStatusForwarded ForwardStatus = "forwarded"
	// ForwardStatusPending means auto-submission is disabled and an operator must submit
	ForwardStatusPending ForwardStatus = "pending"
	// ForwardStatusSkipped means the integration degraded without error
	ForwardStatusSkipped ForwardStatus = "skipped"
)

// Forward skip/pending reasons
const (
	ReasonNotConfigured      = "not_configured"
	ReasonAutoSubmitDisabled = "auto_submit_disabled"
	ReasonNoVendorOrder      = "no_vendor_order"
)

// ForwardResult is the tagged outcome of forwarding an order to the vendor.
// Status is the discriminant; the other fields are populated per status.
type ForwardResult struct {
	Status        ForwardStatus   `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	VendorOrderID int64           `json:"vendor_order_id,omitempty"`
	OrderNumber   string          `json:"order_number,omitempty"`
	OrderKey      string          `json:"order_key,omitempty"`
	InvoiceURL    string          `json:"invoice_url,omitempty"`
	DraftID       string          `json:"draft_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// CancelResult is the outcome of a vendor-side cancellation.
type CancelResult struct {
	Status ForwardStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// TaxResult carries the authoritative tax total and the raw upstream payload.
type TaxResult struct {
	Total   decimal.Decimal `json:"total"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OrderSummary is the canonical view of a vendor order, mapped back into the
// system's shapes.
type OrderSummary struct {
	InternalOrderID  string
	VendorOrderID    int64
	OrderNumber      string
	Status           order.Status
	Total            decimal.Decimal
	Currency         string
	ShippingEstimate *ShippingEstimateBlob
	EstimatedArrival *time.Time
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// ShippingEstimateBlob is the shipping-estimate metadata persisted on the
// vendor order, parsed back into structured form.
type ShippingEstimateBlob struct {
	CarrierID    string          `json:"carrier_id"`
	ServiceCode  string          `json:"service_code"`
	Rate         decimal.Decimal `json:"rate"`
	DeliveryDays int             `json:"delivery_days,omitempty"`
}

// Forwarder submits orders to the external commerce platform and performs
// follow-up vendor operations. Implementations must degrade to skipped
// results when unconfigured, never fail checkout for a missing integration.
type Forwarder interface {
	ForwardOrder(ctx context.Context, o *order.Order, customer Customer) (*ForwardResult, error)
	// CancelOrder cancels the vendor order. A zero vendorOrderID is a no-op
	// success, since a never-forwarded order has nothing to cancel upstream.
	CancelOrder(ctx context.Context, vendorOrderID int64, reason, statusOverride string) (*CancelResult, error)
	MarkOrderPaid(ctx context.Context, vendorOrderID int64) error
	AddOrderNote(ctx context.Context, vendorOrderID int64, note string, customerVisible bool) error
	UpdateInventory(ctx context.Context, vendorProductID int64, quantity int) error
	FetchOrderSummary(ctx context.Context, vendorOrderID int64) (*OrderSummary, error)
}

// TaxCalculator computes order tax via the commerce platform, degrading to
// ErrTaxUnsupported when the platform has no tax endpoint.
type TaxCalculator interface {
	CalculateTax(ctx context.Context, o *order.Order, customer Customer) (*TaxResult, error)
}
