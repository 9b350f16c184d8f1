package ecommerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/order"
)

// Metadata keys persisted on vendor orders so they can be traced back
const (
	metaKeyOrderID          = "_peptiva_order_id"
	metaKeyShippingEstimate = "_peptiva_shipping_estimate"
	metaKeyReferralCode     = "_peptiva_referral_code"
)

// wooTimeLayout is the timestamp format used by the WooCommerce REST API
const wooTimeLayout = "2006-01-02T15:04:05"

// ---------------------------------------------------------------------------
// Request Types
// ---------------------------------------------------------------------------

// wooAddress is the billing/shipping address shape on Woo orders
type wooAddress struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address_1,omitempty"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// wooLineItem is a product line on an order payload
type wooLineItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal,omitempty"`
	Total     string `json:"total,omitempty"`
	TotalTax  string `json:"total_tax,omitempty"`
}

// wooShippingLine carries the selected shipping service and its charge
type wooShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

// wooFeeLine is an ad-hoc charge, used as the tax fallback when no
// manual tax rate could be registered on the store
type wooFeeLine struct {
	Name      string `json:"name"`
	Total     string `json:"total"`
	TaxStatus string `json:"tax_status,omitempty"`
}

// wooTaxLine references a registered tax rate with a fixed amount
type wooTaxLine struct {
	RateID   int64  `json:"rate_id"`
	Label    string `json:"label,omitempty"`
	TaxTotal string `json:"tax_total"`
}

// wooMetaData is a key/value pair stored on the vendor order
type wooMetaData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// wooOrderRequest is the order creation/update payload
type wooOrderRequest struct {
	Status             string            `json:"status,omitempty"`
	Currency           string            `json:"currency,omitempty"`
	PaymentMethod      string            `json:"payment_method,omitempty"`
	PaymentMethodTitle string            `json:"payment_method_title,omitempty"`
	SetPaid            bool              `json:"set_paid"`
	CustomerNote       string            `json:"customer_note,omitempty"`
	Billing            *wooAddress       `json:"billing,omitempty"`
	Shipping           *wooAddress       `json:"shipping,omitempty"`
	LineItems          []wooLineItem     `json:"line_items,omitempty"`
	ShippingLines      []wooShippingLine `json:"shipping_lines,omitempty"`
	FeeLines           []wooFeeLine      `json:"fee_lines,omitempty"`
	TaxLines           []wooTaxLine      `json:"tax_lines,omitempty"`
	MetaData           []wooMetaData     `json:"meta_data,omitempty"`
}

// wooOrderNoteRequest adds a note to an existing order
type wooOrderNoteRequest struct {
	Note         string `json:"note"`
	CustomerNote bool   `json:"customer_note"`
}

// wooStockUpdateRequest adjusts product stock
type wooStockUpdateRequest struct {
	ManageStock   bool `json:"manage_stock"`
	StockQuantity int  `json:"stock_quantity"`
}

// wooTaxRateRequest registers a tax rate on the store
type wooTaxRateRequest struct {
	Country  string `json:"country,omitempty"`
	Rate     string `json:"rate"`
	Name     string `json:"name"`
	Shipping bool   `json:"shipping"`
	Compound bool   `json:"compound"`
}

// ---------------------------------------------------------------------------
// Response Types
// ---------------------------------------------------------------------------

// wooMetaDataEntry is metadata as returned by the API (value shape varies)
type wooMetaDataEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// wooOrderResponse is the order shape returned by the API
type wooOrderResponse struct {
	ID            int64              `json:"id"`
	Number        string             `json:"number"`
	OrderKey      string             `json:"order_key"`
	Status        string             `json:"status"`
	Currency      string             `json:"currency"`
	Total         string             `json:"total"`
	TotalTax      string             `json:"total_tax"`
	DateCreated   string             `json:"date_created"`
	DateCompleted string             `json:"date_completed"`
	ShippingLines []wooShippingLine  `json:"shipping_lines"`
	MetaData      []wooMetaDataEntry `json:"meta_data"`
}

// metaString extracts a string-valued metadata entry, or ""
func (r *wooOrderResponse) metaString(key string) string {
	for _, m := range r.MetaData {
		if m.Key == key {
			if s, ok := m.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// wooTaxRateResponse is the registered tax rate shape
type wooTaxRateResponse struct {
	ID   int64  `json:"id"`
	Rate string `json:"rate"`
	Name string `json:"name"`
}

// wooErrorResponse is the standard WP REST error envelope
type wooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// ParseDecimal parses a platform money string, returning zero on failure.
// Woo renders money as plain decimal strings; an empty field means zero.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func int64String(v int64) string {
	return strconv.FormatInt(v, 10)
}

// parseWooTime parses a Woo API timestamp, returning nil when absent
func parseWooTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(wooTimeLayout, s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

// mapWooStatus maps a Woo order status to the internal order status
func mapWooStatus(status string) order.Status {
	switch status {
	case "pending":
		return order.StatusPending
	case "processing", "on-hold":
		return order.StatusProcessing
	case "completed":
		return order.StatusCompleted
	case "cancelled", "refunded", "failed":
		return order.StatusCancelled
	case "trash":
		return order.StatusTrash
	default:
		return order.StatusPending
	}
}

// inferTransitDays estimates business days in transit from the carrier
// service name when the rate quote carried no delivery window.
func inferTransitDays(service string) int {
	s := strings.ToLower(service)
	switch {
	case strings.Contains(s, "overnight"), strings.Contains(s, "next day"):
		return 1
	case strings.Contains(s, "2nd day"), strings.Contains(s, "second day"), strings.Contains(s, "2 day"):
		return 2
	case strings.Contains(s, "3 day"), strings.Contains(s, "three day"), strings.Contains(s, "express saver"):
		return 3
	case strings.Contains(s, "priority"):
		return 3
	case strings.Contains(s, "first class"), strings.Contains(s, "first-class"):
		return 4
	case strings.Contains(s, "ground"), strings.Contains(s, "home delivery"):
		return 5
	default:
		return 5
	}
}
