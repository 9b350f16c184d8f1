package order

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/domain/shipping"
)

// Status represents the lifecycle status of an order. The values mirror the
// vendor platform's order states so a forwarded order and its local record
// read the same.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusTrash      Status = "trash"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusTrash:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Orders are never deleted, only moved to trash.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCancelled || target == StatusTrash
	case StatusProcessing:
		return target == StatusCompleted || target == StatusCancelled || target == StatusTrash
	case StatusCompleted:
		return target == StatusTrash
	case StatusCancelled:
		return target == StatusTrash
	case StatusTrash:
		return false
	}
	return false
}

// centTolerance bounds the rounding drift allowed by the totals invariant.
var centTolerance = decimal.NewFromFloat(0.01)

// Item is a single order line.
type Item struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// VendorProductID returns the product ID as the vendor's numeric identifier,
// or 0 when the ID is not numeric.
func (i Item) VendorProductID() int64 {
	id, err := strconv.ParseInt(i.ProductID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// NewItem creates an order line, computing the line total
func NewItem(productID, productName string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if productID == "" {
		return Item{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return Item{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return Item{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return Item{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}, nil
}

// VendorRef holds the identifiers assigned by the external commerce platform
// once an order has been forwarded.
type VendorRef struct {
	OrderID     int64  `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	OrderKey    string `json:"order_key,omitempty"`
	ShippingID  string `json:"shipping_id,omitempty"`
	InvoiceURL  string `json:"invoice_url,omitempty"`
	DraftID     string `json:"draft_id,omitempty"`
}

// Order is the authoritative order record created at checkout. It is never
// physically deleted, only status-transitioned.
type Order struct {
	ID               string
	Items            []Item
	ItemsSubtotal    decimal.Decimal
	DiscountTotal    decimal.Decimal
	ShippingTotal    decimal.Decimal
	TaxTotal         decimal.Decimal
	GrandTotal       decimal.Decimal
	Currency         string
	Status           Status
	ReferralCode     string
	ShippingAddress  shipping.Address
	ShippingEstimate *shipping.Estimate
	Vendor           VendorRef
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// New creates a pending order, recomputing every derived total server-side.
// Client-submitted totals are untrusted input; callers verify them against
// the recomputed order with VerifyGrandTotal.
func New(id string, items []Item, discountTotal, shippingTotal, taxTotal decimal.Decimal, currency string) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one item")
	}
	if discountTotal.IsNegative() || shippingTotal.IsNegative() || taxTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Order totals cannot be negative")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if currency == "" {
		currency = "USD"
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}

	now := time.Now()
	o := &Order{
		ID:            id,
		Items:         items,
		ItemsSubtotal: subtotal.Round(2),
		DiscountTotal: discountTotal.Round(2),
		ShippingTotal: shippingTotal.Round(2),
		TaxTotal:      taxTotal.Round(2),
		Currency:      currency,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.GrandTotal = o.computeGrandTotal()
	return o, nil
}

func (o *Order) computeGrandTotal() decimal.Decimal {
	return o.ItemsSubtotal.Sub(o.DiscountTotal).Add(o.ShippingTotal).Add(o.TaxTotal).Round(2)
}

// VerifyGrandTotal checks a client-submitted grand total against the
// server-computed one, within one cent.
func (o *Order) VerifyGrandTotal(submitted decimal.Decimal) error {
	if o.GrandTotal.Sub(submitted).Abs().GreaterThan(centTolerance) {
		return shared.ErrTotalsMismatch
	}
	return nil
}

// SetTaxTotal replaces the tax total and recomputes the grand total. Used by
// the orchestrator once the tax calculator has produced an authoritative
// value.
func (o *Order) SetTaxTotal(taxTotal decimal.Decimal) error {
	if taxTotal.IsNegative() {
		return shared.NewDomainError("INVALID_TOTAL", "Tax total cannot be negative")
	}
	o.TaxTotal = taxTotal.Round(2)
	o.GrandTotal = o.computeGrandTotal()
	o.UpdatedAt = time.Now()
	return nil
}

// SetShipping attaches the validated address and estimate.
func (o *Order) SetShipping(addr shipping.Address, est shipping.Estimate) {
	o.ShippingAddress = shipping.Normalize(addr)
	o.ShippingEstimate = &est
	o.UpdatedAt = time.Now()
}

// AttachVendor records the identifiers assigned by the commerce platform.
func (o *Order) AttachVendor(ref VendorRef) {
	o.Vendor = ref
	o.UpdatedAt = time.Now()
}

// MarkProcessing transitions the order to processing
func (o *Order) MarkProcessing() error {
	return o.transition(StatusProcessing)
}

// MarkCompleted transitions the order to completed (paid and fulfilled)
func (o *Order) MarkCompleted() error {
	if err := o.transition(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	o.CompletedAt = &now
	return nil
}

// Cancel transitions the order to cancelled with a reason
func (o *Order) Cancel(reason string) error {
	if err := o.transition(StatusCancelled); err != nil {
		return err
	}
	if reason == "" {
		reason = "payment failed"
	}
	o.CancelReason = reason
	now := time.Now()
	o.CancelledAt = &now
	return nil
}

// Trash soft-deletes the order
func (o *Order) Trash() error {
	return o.transition(StatusTrash)
}

func (o *Order) transition(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Fingerprint returns a stable hash over the normalized order content: items,
// grand total, referral code, and shipping characteristics. Two submissions
// with the same fingerprint are the same purchase.
func (o *Order) Fingerprint() string {
	lines := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", strings.ToUpper(item.ProductID), item.Quantity, item.UnitPrice.StringFixed(2)))
	}
	sort.Strings(lines)

	parts := []string{
		strings.Join(lines, ","),
		o.GrandTotal.StringFixed(2),
		strings.ToUpper(strings.TrimSpace(o.ReferralCode)),
		shipping.Fingerprint(o.ShippingAddress),
	}
	if o.ShippingEstimate != nil {
		parts = append(parts, o.ShippingEstimate.CarrierID, o.ShippingEstimate.ServiceCode, o.ShippingEstimate.Rate.StringFixed(2))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
