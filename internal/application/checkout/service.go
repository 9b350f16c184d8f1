package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/domain/shipping"
)

// CommissionApplier attributes a referral commission for a completed
// checkout. A nil result means no commission applied.
type CommissionApplier interface {
	ApplyReferralCredit(ctx context.Context, code string, orderTotal decimal.Decimal, purchaserID uuid.UUID, orderID string) (*appreferral.CommissionResult, error)
}

// Config carries the orchestrator's tunables.
type Config struct {
	// OrderStoreEnabled gates the persistence stage. Disabled, the stage
	// reports skipped and checkout still succeeds.
	OrderStoreEnabled bool
	// IdempotencyTTL bounds how long a checkout record answers retransmissions.
	IdempotencyTTL time.Duration
}

// Service sequences one checkout through its stages: shipping validation,
// tax calculation, vendor forwarding, persistence, commission. Stages run
// sequentially because each output feeds the next.
type Service struct {
	tax        commerce.TaxCalculator
	forwarder  commerce.Forwarder
	orders     order.Repository
	commission CommissionApplier
	records    shared.CheckoutRecordStore
	config     Config
	logger     *zap.Logger
}

// NewService creates a checkout Service. orders may be nil when the order
// store is disabled; records may be nil to turn idempotency off (tests).
func NewService(
	tax commerce.TaxCalculator,
	forwarder commerce.Forwarder,
	orders order.Repository,
	commission CommissionApplier,
	records shared.CheckoutRecordStore,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tax:        tax,
		forwarder:  forwarder,
		orders:     orders,
		commission: commission,
		records:    records,
		config:     config,
		logger:     logger,
	}
}

// Checkout runs the pipeline for one submitted order.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	o, err := s.buildOrder(req)
	if err != nil {
		return nil, err
	}

	addr := shipping.Normalize(req.Address)
	o.SetShipping(addr, req.Estimate)

	// A retransmission with the same key and the same fingerprint is the
	// same purchase: answer it from the record without a second pipeline run.
	fingerprint := o.Fingerprint()
	if replayed := s.replay(ctx, req.IdempotencyKey, fingerprint); replayed != nil {
		return replayed, nil
	}

	stages := []StageResult{{Stage: StageReceived, Status: StageCompleted}}

	// Shipping validation is pure and deterministic; any failure rejects.
	if _, err := shipping.ValidateEstimate(addr, req.Estimate, req.ShippingTotal); err != nil {
		return nil, err
	}
	stages = append(stages, StageResult{Stage: StageShippingValidated, Status: StageCompleted})

	taxStage, err := s.calculateTax(ctx, o, req.Customer)
	if err != nil {
		return nil, err
	}
	stages = append(stages, taxStage)

	forward, forwardStage, err := s.forward(ctx, o, req.Customer)
	if err != nil {
		return nil, err
	}
	stages = append(stages, forwardStage)

	persistStage, err := s.persist(ctx, o)
	if err != nil {
		return nil, err
	}
	stages = append(stages, persistStage)

	commission := s.applyCommission(ctx, o, req)

	result := &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      StageAcknowledged,
		Stages:     append(stages, StageResult{Stage: StageAcknowledged, Status: StageCompleted}),
		TaxTotal:   o.TaxTotal,
		GrandTotal: o.GrandTotal,
		Currency:   o.Currency,
		Forward:    forward,
		Commission: commission,
	}
	s.record(ctx, req.IdempotencyKey, fingerprint, result)
	return result, nil
}

// buildOrder recomputes every derived total from the submitted lines and
// verifies the client's grand total against the recomputed one.
func (s *Service) buildOrder(req Request) (*order.Order, error) {
	items := make([]order.Item, 0, len(req.Items))
	for _, line := range req.Items {
		item, err := order.NewItem(line.ProductID, line.ProductName, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	o, err := order.New(req.OrderID, items, req.DiscountTotal, req.ShippingTotal, req.TaxTotal, req.Currency)
	if err != nil {
		return nil, err
	}
	o.ReferralCode = req.ReferralCode
	if err := o.VerifyGrandTotal(req.GrandTotal); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) calculateTax(ctx context.Context, o *order.Order, customer commerce.Customer) (StageResult, error) {
	if s.tax == nil {
		return StageResult{Stage: StageTaxCalculated, Status: StageSkipped}, nil
	}
	taxResult, err := s.tax.CalculateTax(ctx, o, customer)
	if err != nil {
		switch {
		case errors.Is(err, commerce.ErrTaxUnsupported),
			errors.Is(err, commerce.ErrPlatformNotConfigured):
			// The submitted tax total stands; the forwarder falls back to a
			// fee line instead of a calculated tax line.
			s.logger.Info("tax calculation unavailable, proceeding with submitted tax",
				zap.String("order_id", o.ID), zap.Error(err))
			return StageResult{Stage: StageTaxCalculated, Status: StageDegraded, Detail: "TAX_UNSUPPORTED"}, nil
		default:
			return StageResult{}, shared.NewDomainError("TAX_CALCULATION_FAILED", err.Error())
		}
	}
	if err := o.SetTaxTotal(taxResult.Total); err != nil {
		return StageResult{}, err
	}
	return StageResult{Stage: StageTaxCalculated, Status: StageCompleted}, nil
}

// platformError converts a commerce platform failure into a domain error so
// callers report a partner outage rather than an internal fault. The last
// upstream HTTP status, when known, is carried in the message.
func platformError(err error) error {
	msg := err.Error()
	if status := commerce.UpstreamStatus(err); status != 0 {
		msg = fmt.Sprintf("%s (upstream HTTP %d)", msg, status)
	}
	return shared.NewDomainError("PLATFORM_UNAVAILABLE", msg)
}

func (s *Service) forward(ctx context.Context, o *order.Order, customer commerce.Customer) (*commerce.ForwardResult, StageResult, error) {
	if s.forwarder == nil {
		return nil, StageResult{Stage: StageForwarded, Status: StageSkipped}, nil
	}
	forward, err := s.forwarder.ForwardOrder(ctx, o, customer)
	if err != nil {
		return nil, StageResult{}, platformError(err)
	}

	stage := StageResult{Stage: StageForwarded, Status: StageCompleted}
	switch forward.Status {
	case commerce.ForwardStatusForwarded:
		o.AttachVendor(order.VendorRef{
			OrderID:     forward.VendorOrderID,
			OrderNumber: forward.OrderNumber,
			OrderKey:    forward.OrderKey,
			InvoiceURL:  forward.InvoiceURL,
		})
	case commerce.ForwardStatusPending:
		o.AttachVendor(order.VendorRef{DraftID: forward.DraftID})
		stage.Status = StageDegraded
		stage.Detail = forward.Reason
	case commerce.ForwardStatusSkipped:
		// Checkout still succeeds locally when the vendor is not configured.
		stage.Status = StageDegraded
		stage.Detail = forward.Reason
	}
	return forward, stage, nil
}

func (s *Service) persist(ctx context.Context, o *order.Order) (StageResult, error) {
	if !s.config.OrderStoreEnabled || s.orders == nil {
		return StageResult{Stage: StagePersisted, Status: StageSkipped}, nil
	}
	if err := s.orders.Upsert(ctx, o); err != nil {
		return StageResult{}, err
	}
	return StageResult{Stage: StagePersisted, Status: StageCompleted}, nil
}

// applyCommission runs last and never fails the checkout: a lost commission
// is logged and recoverable, a lost order is not.
func (s *Service) applyCommission(ctx context.Context, o *order.Order, req Request) *appreferral.CommissionResult {
	if s.commission == nil || o.ReferralCode == "" {
		return nil
	}
	purchaser := uuid.Nil
	if req.PurchaserID != nil {
		purchaser = *req.PurchaserID
	}
	commission, err := s.commission.ApplyReferralCredit(ctx, o.ReferralCode, o.GrandTotal, purchaser, o.ID)
	if err != nil {
		s.logger.Error("commission application failed, order stands",
			zap.String("order_id", o.ID),
			zap.String("referral_code", o.ReferralCode),
			zap.Error(err))
		return nil
	}
	return commission
}

// Cancel compensates a checked-out order: the vendor order is cancelled
// upstream, then the local record transitions to cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*CancelOutcome, error) {
	if !s.config.OrderStoreEnabled || s.orders == nil {
		return nil, shared.NewDomainError("ORDER_STORE_DISABLED", "Order cancellation requires the order store")
	}
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	outcome := &CancelOutcome{OrderID: o.ID}
	if s.forwarder != nil {
		vendorCancel, err := s.forwarder.CancelOrder(ctx, o.Vendor.OrderID, reason, "")
		if err != nil {
			return nil, platformError(err)
		}
		outcome.VendorCancel = vendorCancel
	}

	if err := o.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orders.Upsert(ctx, o); err != nil {
		return nil, err
	}
	outcome.Status = o.Status
	return outcome, nil
}

// GetOrder returns the locally persisted order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	if !s.config.OrderStoreEnabled || s.orders == nil {
		return nil, shared.ErrNotFound
	}
	return s.orders.FindByID(ctx, orderID)
}

// ListOrders returns persisted orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	if !s.config.OrderStoreEnabled || s.orders == nil {
		return nil, 0, nil
	}
	return s.orders.List(ctx, filter)
}

func (s *Service) replay(ctx context.Context, key, fingerprint string) *Result {
	if s.records == nil || key == "" {
		return nil
	}
	record, found, err := s.records.Get(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency record lookup failed", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	if record.Fingerprint != fingerprint {
		// Same key, different order content: treat as a new purchase.
		s.logger.Info("idempotency key reused with a new fingerprint",
			zap.String("order_id", record.OrderID))
		return nil
	}
	var result Result
	if err := json.Unmarshal(record.Result, &result); err != nil {
		s.logger.Warn("stored checkout result unreadable, rerunning pipeline", zap.Error(err))
		return nil
	}
	result.Replayed = true
	return &result
}

func (s *Service) record(ctx context.Context, key, fingerprint string, result *Result) {
	if s.records == nil || key == "" {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("checkout result not serializable", zap.Error(err))
		return
	}
	err = s.records.Put(ctx, shared.CheckoutRecord{
		IdempotencyKey: key,
		Fingerprint:    fingerprint,
		OrderID:        result.OrderID,
		Result:         payload,
		CreatedAt:      time.Now(),
	}, s.config.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("idempotency record store failed", zap.Error(err))
	}
}
