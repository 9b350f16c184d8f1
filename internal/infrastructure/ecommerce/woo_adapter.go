package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
)

// maxResponseSize is the maximum allowed response size from the Woo API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// taxFeeLineName labels the fee-line fallback when no tax rate could be
// registered on the store
const taxFeeLineName = "Sales Tax"

// WooAdapter implements the commerce platform interfaces against the
// WooCommerce REST API. An unconfigured adapter degrades every operation
// to a skipped result instead of failing checkout.
type WooAdapter struct {
	config     *WooConfig
	httpClient *http.Client
	logger     *zap.Logger

	// Manual tax rate registration is memoized process-wide. Concurrent
	// forwards coalesce on the in-flight registration instead of racing.
	rateMu          sync.Mutex
	manualTaxRateID int64
	rateInflight    chan struct{}
}

// NewWooAdapter creates a new WooCommerce adapter with the given configuration.
// A nil or incomplete config is accepted and yields a degraded adapter.
func NewWooAdapter(config *WooConfig, logger *zap.Logger) (*WooAdapter, error) {
	if config == nil {
		config = &WooConfig{}
	}
	if config.IsConfigured() {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WooAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("woocommerce"),
	}, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// ForwardOrder submits an order to the store. The built payload is always
// returned, including on skipped and pending results, so an operator can
// submit it manually.
func (a *WooAdapter) ForwardOrder(ctx context.Context, o *order.Order, customer commerce.Customer) (*commerce.ForwardResult, error) {
	payload := a.buildOrderPayload(ctx, o, customer)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to encode order payload: %w", err)
	}

	if !a.config.IsConfigured() {
		a.logger.Warn("order forwarding skipped, platform not configured",
			zap.String("order_id", o.ID))
		return &commerce.ForwardResult{
			Status:  commerce.ForwardStatusSkipped,
			Reason:  commerce.ReasonNotConfigured,
			Payload: raw,
		}, nil
	}

	if !a.config.AutoSubmit {
		draftID := uuid.NewString()
		a.logger.Info("order held for manual submission",
			zap.String("order_id", o.ID),
			zap.String("draft_id", draftID))
		return &commerce.ForwardResult{
			Status:  commerce.ForwardStatusPending,
			Reason:  commerce.ReasonAutoSubmitDisabled,
			DraftID: draftID,
			Payload: raw,
		}, nil
	}

	body, _, err := a.doRequest(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}

	var resp wooOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse order response: %v", commerce.ErrPlatformRequestFailed, err)
	}

	a.logger.Info("order forwarded",
		zap.String("order_id", o.ID),
		zap.Int64("vendor_order_id", resp.ID),
		zap.String("order_number", resp.Number))

	return &commerce.ForwardResult{
		Status:        commerce.ForwardStatusForwarded,
		VendorOrderID: resp.ID,
		OrderNumber:   resp.Number,
		OrderKey:      resp.OrderKey,
		InvoiceURL:    a.config.InvoiceURL(resp.ID, resp.OrderKey),
		Payload:       raw,
	}, nil
}

// CancelOrder cancels the vendor order. A zero vendorOrderID means the order
// was never forwarded, which cancels cleanly as a no-op.
func (a *WooAdapter) CancelOrder(ctx context.Context, vendorOrderID int64, reason, statusOverride string) (*commerce.CancelResult, error) {
	if vendorOrderID == 0 {
		return &commerce.CancelResult{
			Status: commerce.ForwardStatusSkipped,
			Reason: commerce.ReasonNoVendorOrder,
		}, nil
	}
	if !a.config.IsConfigured() {
		return &commerce.CancelResult{
			Status: commerce.ForwardStatusSkipped,
			Reason: commerce.ReasonNotConfigured,
		}, nil
	}

	status := statusOverride
	if status == "" {
		status = "cancelled"
	}

	update := map[string]any{"status": status}
	if _, _, err := a.doRequest(ctx, http.MethodPut, "/orders/"+int64String(vendorOrderID), update); err != nil {
		return nil, err
	}

	if reason != "" {
		// Best effort: a failed note must not undo the cancellation
		if err := a.AddOrderNote(ctx, vendorOrderID, reason, true); err != nil {
			a.logger.Warn("failed to attach cancellation note",
				zap.Int64("vendor_order_id", vendorOrderID),
				zap.Error(err))
		}
	}

	a.logger.Info("vendor order cancelled",
		zap.Int64("vendor_order_id", vendorOrderID),
		zap.String("status", status))

	return &commerce.CancelResult{Status: commerce.ForwardStatusForwarded}, nil
}

// MarkOrderPaid flags the vendor order as paid
func (a *WooAdapter) MarkOrderPaid(ctx context.Context, vendorOrderID int64) error {
	if !a.config.IsConfigured() {
		return commerce.ErrPlatformNotConfigured
	}
	update := map[string]any{"set_paid": true}
	_, _, err := a.doRequest(ctx, http.MethodPut, "/orders/"+int64String(vendorOrderID), update)
	return err
}

// AddOrderNote attaches a note to the vendor order
func (a *WooAdapter) AddOrderNote(ctx context.Context, vendorOrderID int64, note string, customerVisible bool) error {
	if !a.config.IsConfigured() {
		return commerce.ErrPlatformNotConfigured
	}
	req := wooOrderNoteRequest{Note: note, CustomerNote: customerVisible}
	_, _, err := a.doRequest(ctx, http.MethodPost, "/orders/"+int64String(vendorOrderID)+"/notes", req)
	return err
}

// UpdateInventory sets the stock quantity for a vendor product
func (a *WooAdapter) UpdateInventory(ctx context.Context, vendorProductID int64, quantity int) error {
	if !a.config.IsConfigured() {
		return commerce.ErrPlatformNotConfigured
	}
	req := wooStockUpdateRequest{ManageStock: true, StockQuantity: quantity}
	_, _, err := a.doRequest(ctx, http.MethodPut, "/products/"+int64String(vendorProductID), req)
	return err
}

// FetchOrderSummary retrieves a vendor order and maps it to the canonical
// summary, inferring the estimated arrival from the shipping service when
// the stored estimate carried no delivery window.
func (a *WooAdapter) FetchOrderSummary(ctx context.Context, vendorOrderID int64) (*commerce.OrderSummary, error) {
	if !a.config.IsConfigured() {
		return nil, commerce.ErrPlatformNotConfigured
	}

	body, _, err := a.doRequest(ctx, http.MethodGet, "/orders/"+int64String(vendorOrderID), nil)
	if err != nil {
		return nil, err
	}

	var resp wooOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse order response: %v", commerce.ErrPlatformRequestFailed, err)
	}

	summary := &commerce.OrderSummary{
		InternalOrderID: resp.metaString(metaKeyOrderID),
		VendorOrderID:   resp.ID,
		OrderNumber:     resp.Number,
		Status:          mapWooStatus(resp.Status),
		Total:           ParseDecimal(resp.Total),
		Currency:        resp.Currency,
	}

	if created := parseWooTime(resp.DateCreated); created != nil {
		summary.CreatedAt = *created
	}
	summary.CompletedAt = parseWooTime(resp.DateCompleted)

	if blob := resp.metaString(metaKeyShippingEstimate); blob != "" {
		var est commerce.ShippingEstimateBlob
		if err := json.Unmarshal([]byte(blob), &est); err == nil {
			summary.ShippingEstimate = &est
		}
	}

	summary.EstimatedArrival = a.estimateArrival(summary, resp.ShippingLines)
	return summary, nil
}

// estimateArrival projects the delivery date from the ship date plus the
// transit window. Completed orders anchor on completion, otherwise creation.
func (a *WooAdapter) estimateArrival(summary *commerce.OrderSummary, lines []wooShippingLine) *time.Time {
	anchor := summary.CreatedAt
	if summary.CompletedAt != nil {
		anchor = *summary.CompletedAt
	}
	if anchor.IsZero() {
		return nil
	}

	days := 0
	if summary.ShippingEstimate != nil && summary.ShippingEstimate.DeliveryDays > 0 {
		days = summary.ShippingEstimate.DeliveryDays
	} else if summary.ShippingEstimate != nil && summary.ShippingEstimate.ServiceCode != "" {
		days = inferTransitDays(summary.ShippingEstimate.ServiceCode)
	} else if len(lines) > 0 {
		days = inferTransitDays(lines[0].MethodTitle)
	}
	if days <= 0 {
		return nil
	}

	arrival := anchor.AddDate(0, 0, days)
	return &arrival
}

// ---------------------------------------------------------------------------
// Payload Construction
// ---------------------------------------------------------------------------

// buildOrderPayload converts an order to the vendor wire shape. Tax is
// attached as referenced tax lines when a manual rate is available, or a
// flat fee line otherwise, so the vendor total always matches ours.
func (a *WooAdapter) buildOrderPayload(ctx context.Context, o *order.Order, customer commerce.Customer) *wooOrderRequest {
	req := &wooOrderRequest{
		Status:             "pending",
		Currency:           o.Currency,
		PaymentMethod:      "cod",
		PaymentMethodTitle: "Invoice",
		SetPaid:            false,
	}

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
	req.Shipping = addr

	billing := *addr
	billing.Email = customer.Email
	billing.Phone = customer.Phone
	req.Billing = &billing

	for _, item := range o.Items {
		req.LineItems = append(req.LineItems, wooLineItem{
			ProductID: item.VendorProductID(),
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Subtotal:  item.LineTotal.StringFixed(2),
			Total:     item.LineTotal.StringFixed(2),
		})
	}

	if o.ShippingEstimate != nil {
		req.ShippingLines = append(req.ShippingLines, wooShippingLine{
			MethodID:    "flat_rate",
			MethodTitle: o.ShippingEstimate.ServiceType,
			Total:       o.ShippingTotal.StringFixed(2),
		})
	} else if o.ShippingTotal.IsPositive() {
		req.ShippingLines = append(req.ShippingLines, wooShippingLine{
			MethodID:    "flat_rate",
			MethodTitle: "Shipping",
			Total:       o.ShippingTotal.StringFixed(2),
		})
	}

	a.applyTax(ctx, req, o)

	req.MetaData = append(req.MetaData, wooMetaData{Key: metaKeyOrderID, Value: o.ID})
	if o.ReferralCode != "" {
		req.MetaData = append(req.MetaData, wooMetaData{Key: metaKeyReferralCode, Value: o.ReferralCode})
	}
	if o.ShippingEstimate != nil {
		blob, err := json.Marshal(commerce.ShippingEstimateBlob{
			CarrierID:    o.ShippingEstimate.CarrierID,
			ServiceCode:  o.ShippingEstimate.ServiceCode,
			Rate:         o.ShippingEstimate.Rate,
			DeliveryDays: o.ShippingEstimate.DeliveryDays,
		})
		if err == nil {
			req.MetaData = append(req.MetaData, wooMetaData{Key: metaKeyShippingEstimate, Value: string(blob)})
		}
	}

	return req
}

// applyTax attaches the order's tax total to the payload
func (a *WooAdapter) applyTax(ctx context.Context, req *wooOrderRequest, o *order.Order) {
	if !o.TaxTotal.IsPositive() {
		return
	}

	// Rate registration only matters for orders we actually submit; a
	// payload built for manual review carries the fee-line form instead.
	if a.config.IsConfigured() && a.config.AutoSubmit {
		rateID, err := a.ensureManualTaxRate(ctx)
		if err == nil {
			allocateLineTax(req.LineItems, o.TaxTotal)
			req.TaxLines = append(req.TaxLines, wooTaxLine{
				RateID:   rateID,
				Label:    taxFeeLineName,
				TaxTotal: o.TaxTotal.StringFixed(2),
			})
			return
		}
		a.logger.Warn("manual tax rate unavailable, falling back to fee line",
			zap.Error(err))
	}

	req.FeeLines = append(req.FeeLines, wooFeeLine{
		Name:      taxFeeLineName,
		Total:     o.TaxTotal.StringFixed(2),
		TaxStatus: "none",
	})
}

// allocateLineTax distributes the tax total across line items in proportion
// to their totals. The last line absorbs the rounding remainder so the
// allocations always sum exactly to the order tax.
func allocateLineTax(items []wooLineItem, tax decimal.Decimal) {
	if len(items) == 0 {
		return
	}

	base := decimal.Zero
	for _, item := range items {
		base = base.Add(ParseDecimal(item.Total))
	}

	allocated := decimal.Zero
	for i := range items {
		if i == len(items)-1 {
			items[i].TotalTax = tax.Sub(allocated).StringFixed(2)
			return
		}
		var share decimal.Decimal
		if base.IsPositive() {
			share = tax.Mul(ParseDecimal(items[i].Total)).Div(base).Round(2)
		}
		items[i].TotalTax = share.StringFixed(2)
		allocated = allocated.Add(share)
	}
}

// ensureManualTaxRate registers the zero-percent manual tax rate used to
// anchor tax lines, once per process. Concurrent callers wait on the same
// in-flight registration; a failure is not cached so the next forward
// retries.
func (a *WooAdapter) ensureManualTaxRate(ctx context.Context) (int64, error) {
	for {
		a.rateMu.Lock()
		if a.manualTaxRateID != 0 {
			id := a.manualTaxRateID
			a.rateMu.Unlock()
			return id, nil
		}
		if a.rateInflight == nil {
			ch := make(chan struct{})
			a.rateInflight = ch
			a.rateMu.Unlock()

			id, err := a.registerManualTaxRate(ctx)

			a.rateMu.Lock()
			if err == nil {
				a.manualTaxRateID = id
			}
			a.rateInflight = nil
			close(ch)
			a.rateMu.Unlock()
			return id, err
		}
		ch := a.rateInflight
		a.rateMu.Unlock()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ch:
			// Registration settled, re-check the memoized value
		}
	}
}

// registerManualTaxRate creates the manual rate on the store
func (a *WooAdapter) registerManualTaxRate(ctx context.Context) (int64, error) {
	req := wooTaxRateRequest{
		Rate:     "0.0000",
		Name:     taxFeeLineName,
		Shipping: false,
		Compound: false,
	}
	body, _, err := a.doRequest(ctx, http.MethodPost, "/taxes", req)
	if err != nil {
		return 0, err
	}
	var resp wooTaxRateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: failed to parse tax rate response: %v", commerce.ErrPlatformRequestFailed, err)
	}
	if resp.ID == 0 {
		return 0, fmt.Errorf("%w: tax rate response missing id", commerce.ErrPlatformRequestFailed)
	}
	return resp.ID, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an authenticated request against the Woo REST API,
// retrying transient failures with exponential backoff.
func (a *WooAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if !a.config.IsConfigured() {
		return nil, 0, commerce.ErrPlatformNotConfigured
	}

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
	}

	maxAttempts := a.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.config.APIURL(path), reader)
		if err != nil {
			return nil, 0, fmt.Errorf("woocommerce: failed to create request: %w", err)
		}
		req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", commerce.ErrPlatformUnavailable, err)
			if attempt < maxAttempts {
				a.logger.Warn("platform request failed, retrying",
					zap.String("path", path),
					zap.Int("attempt", attempt),
					zap.Error(err))
				if serr := sleepContext(ctx, retryDelay(attempt, 0)); serr != nil {
					return nil, 0, lastErr
				}
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, fmt.Errorf("woocommerce: failed to read response: %w", readErr)
		}

		if resp.StatusCode < 400 {
			return body, resp.StatusCode, nil
		}

		lastErr = platformError(resp.StatusCode, body)
		if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
			a.logger.Warn("platform returned retryable status",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt))
			if serr := sleepContext(ctx, retryDelay(attempt, parseRetryAfter(resp))); serr != nil {
				return nil, resp.StatusCode, lastErr
			}
			continue
		}
		return nil, resp.StatusCode, lastErr
	}
	return nil, 0, lastErr
}

// platformError wraps a failed response in the matching sentinel, keeping
// the upstream status reachable via errors.As.
func platformError(status int, body []byte) error {
	detail := string(body)
	if len(detail) > 512 {
		detail = detail[:512]
	}

	var envelope wooErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		detail = envelope.Message
	}

	se := &commerce.StatusError{StatusCode: status, Body: detail}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", commerce.ErrPlatformRateLimited, se)
	}
	return fmt.Errorf("%w: %w", commerce.ErrPlatformRequestFailed, se)
}

// Ensure WooAdapter implements the platform interface
var _ commerce.Forwarder = (*WooAdapter)(nil)
