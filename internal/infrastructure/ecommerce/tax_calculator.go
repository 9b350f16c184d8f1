package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
)

// taxEndpointVariants are the candidate tax calculation endpoints, probed in
// order. Stores expose different routes depending on installed tax plugins.
var taxEndpointVariants = []string{
	"/taxes/calculate",
	"/calculate_taxes",
	"/taxes",
}

// WooTaxCalculator computes order tax through the store's tax endpoint.
// The first time every endpoint variant returns 404 the calculator latches
// unsupported and stops probing until Reset is called, so stores without a
// tax plugin are not hammered on every checkout.
type WooTaxCalculator struct {
	adapter *WooAdapter
	logger  *zap.Logger

	mu          sync.Mutex
	unsupported bool
}

// NewWooTaxCalculator creates a tax calculator backed by the given adapter
func NewWooTaxCalculator(adapter *WooAdapter, logger *zap.Logger) *WooTaxCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WooTaxCalculator{
		adapter: adapter,
		logger:  logger.Named("woocommerce.tax"),
	}
}

// Supported reports whether the platform is believed to support tax
// calculation. False only after every endpoint variant returned 404.
func (c *WooTaxCalculator) Supported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.unsupported
}

// Reset clears the latched unsupported state, re-enabling endpoint probing.
// Intended for operator use after installing a tax plugin on the store.
func (c *WooTaxCalculator) Reset() {
	c.mu.Lock()
	c.unsupported = false
	c.mu.Unlock()
}

// wooTaxCalcRequest is the payload submitted to the tax endpoint
type wooTaxCalcRequest struct {
	Shipping  *wooAddress   `json:"shipping"`
	LineItems []wooLineItem `json:"line_items"`
	Subtotal  string        `json:"subtotal"`
	ShipTotal string        `json:"shipping_total"`
}

// wooTaxCalcResponse accepts the response shapes the variants produce
type wooTaxCalcResponse struct {
	TotalTax string `json:"total_tax"`
	TaxTotal string `json:"tax_total"`
	Total    string `json:"total"`
	Taxes    []struct {
		Total string `json:"total"`
	} `json:"taxes"`
}

// taxAmount extracts the tax total from whichever field the store populated
func (r *wooTaxCalcResponse) taxAmount() (decimal.Decimal, bool) {
	for _, s := range []string{r.TotalTax, r.TaxTotal, r.Total} {
		if s != "" {
			return ParseDecimal(s), true
		}
	}
	if len(r.Taxes) > 0 {
		sum := decimal.Zero
		for _, t := range r.Taxes {
			sum = sum.Add(ParseDecimal(t.Total))
		}
		return sum, true
	}
	return decimal.Zero, false
}

// CalculateTax computes the authoritative tax for an order via the store.
// A complete shipping address is required; tax jurisdictions are address
// driven and an estimate without one would be meaningless.
func (c *WooTaxCalculator) CalculateTax(ctx context.Context, o *order.Order, customer commerce.Customer) (*commerce.TaxResult, error) {
	if !o.ShippingAddress.IsComplete() {
		return nil, commerce.ErrAddressRequired
	}
	if !c.adapter.config.IsConfigured() {
		return nil, commerce.ErrPlatformNotConfigured
	}

	c.mu.Lock()
	unsupported := c.unsupported
	c.mu.Unlock()
	if unsupported {
		return nil, commerce.ErrTaxUnsupported
	}

	payload := c.buildRequest(o, customer)

	missing := 0
	for _, endpoint := range taxEndpointVariants {
		body, status, err := c.adapter.doRequest(ctx, http.MethodPost, endpoint, payload)
		if err != nil {
			if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
				missing++
				continue
			}
			return nil, err
		}

		var resp wooTaxCalcResponse
		if uerr := json.Unmarshal(body, &resp); uerr != nil {
			return nil, fmt.Errorf("%w: failed to parse tax response: %v", commerce.ErrPlatformRequestFailed, uerr)
		}
		amount, ok := resp.taxAmount()
		if !ok {
			return nil, fmt.Errorf("%w: tax response carried no amount", commerce.ErrPlatformRequestFailed)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: tax response carried negative amount", commerce.ErrPlatformRequestFailed)
		}

		c.logger.Debug("tax calculated",
			zap.String("order_id", o.ID),
			zap.String("endpoint", endpoint),
			zap.String("tax", amount.StringFixed(2)))

		return &commerce.TaxResult{Total: amount.Round(2), Payload: body}, nil
	}

	if missing == len(taxEndpointVariants) {
		c.mu.Lock()
		c.unsupported = true
		c.mu.Unlock()
		c.logger.Warn("no tax endpoint found, latching unsupported",
			zap.String("order_id", o.ID))
	}
	return nil, commerce.ErrTaxUnsupported
}

// buildRequest converts the order into the tax endpoint payload
func (c *WooTaxCalculator) buildRequest(o *order.Order, customer commerce.Customer) *wooTaxCalcRequest {
	addr := &wooAddress{
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Address1:  o.ShippingAddress.Street1,
		Address2:  o.ShippingAddress.Street2,
		City:      o.ShippingAddress.City,
		State:     o.ShippingAddress.State,
		Postcode:  o.ShippingAddress.PostalCode,
		Country:   o.ShippingAddress.Country,
	}

	items := make([]wooLineItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, wooLineItem{
			ProductID: item.VendorProductID(),
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Subtotal:  item.LineTotal.StringFixed(2),
			Total:     item.LineTotal.StringFixed(2),
		})
	}

	return &wooTaxCalcRequest{
		Shipping:  addr,
		LineItems: items,
		Subtotal:  o.ItemsSubtotal.StringFixed(2),
		ShipTotal: o.ShippingTotal.StringFixed(2),
	}
}

// Ensure WooTaxCalculator implements the platform interface
var _ commerce.TaxCalculator = (*WooTaxCalculator)(nil)
