package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/domain/shipping"
)

func validRequest() Request {
	addr := shipping.Address{
		Street1:    "600 Congress Ave",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
	return Request{
		OrderID:        "ord-1",
		IdempotencyKey: "key-1",
		Items: []ItemRequest{
			{ProductID: "101", ProductName: "BPC-157 5mg", Quantity: 2, UnitPrice: decimal.NewFromInt(40)},
			{ProductID: "102", ProductName: "TB-500 10mg", Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
		},
		ShippingTotal: decimal.NewFromInt(10),
		TaxTotal:      decimal.NewFromFloat(8.25),
		GrandTotal:    decimal.NewFromFloat(118.25),
		Currency:      "USD",
		ReferralCode:  "DRSMIT",
		Customer:      commerce.Customer{Email: "buyer@example.com", FirstName: "Sam", LastName: "Buyer"},
		Address:       addr,
		Estimate: shipping.Estimate{
			CarrierID:          "fedex",
			ServiceCode:        "fedex_ground",
			Rate:               decimal.NewFromInt(10),
			Currency:           "USD",
			DeliveryDays:       5,
			AddressFingerprint: shipping.Fingerprint(addr),
		},
	}
}

type serviceDeps struct {
	tax        *MockTaxCalculator
	forwarder  *MockForwarder
	orders     *MockOrderRepository
	commission *MockCommissionApplier
	records    *mapRecordStore
}

func newTestService(t *testing.T, config Config) (*Service, *serviceDeps) {
	t.Helper()
	deps := &serviceDeps{
		tax:        new(MockTaxCalculator),
		forwarder:  new(MockForwarder),
		orders:     new(MockOrderRepository),
		commission: new(MockCommissionApplier),
		records:    newMapRecordStore(),
	}
	svc := NewService(deps.tax, deps.forwarder, deps.orders, deps.commission, deps.records, config, nil)
	return svc, deps
}

func stageStatus(t *testing.T, result *Result, stage Stage) StageStatus {
	t.Helper()
	for _, s := range result.Stages {
		if s.Stage == stage {
			return s.Status
		}
	}
	t.Fatalf("stage %s not recorded", stage)
	return ""
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline acknowledges with vendor reference and commission", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{
				Status:        commerce.ForwardStatusForwarded,
				VendorOrderID: 9001,
				OrderNumber:   "9001",
				OrderKey:      "wc_order_abc",
				InvoiceURL:    "https://shop.example.com/checkout/order-pay/9001/?pay_for_order=true&key=wc_order_abc",
			}, nil)
		var persisted *order.Order
		deps.orders.On("Upsert", mock.Anything, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) { persisted = args.Get(1).(*order.Order) }).
			Return(nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, "DRSMIT", mock.Anything, uuid.Nil, "ord-1").
			Return(&appreferral.CommissionResult{Amount: decimal.NewFromFloat(5.91)}, nil)

		result, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)

		assert.Equal(t, StageAcknowledged, result.Stage)
		assert.Equal(t, "ord-1", result.OrderID)
		assert.True(t, result.GrandTotal.Equal(decimal.NewFromFloat(118.25)))
		require.NotNil(t, result.Forward)
		assert.Equal(t, int64(9001), result.Forward.VendorOrderID)
		require.NotNil(t, result.Commission)
		assert.False(t, result.Replayed)

		require.NotNil(t, persisted)
		assert.Equal(t, int64(9001), persisted.Vendor.OrderID)
		assert.Equal(t, "wc_order_abc", persisted.Vendor.OrderKey)

		for _, stage := range []Stage{StageShippingValidated, StageTaxCalculated, StageForwarded, StagePersisted} {
			assert.Equal(t, StageCompleted, stageStatus(t, result, stage), stage)
		}
	})

	t.Run("client total off by a cent is rejected", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		req := validRequest()
		req.GrandTotal = decimal.NewFromFloat(118.27)

		_, err := svc.Checkout(ctx, req)
		assert.ErrorIs(t, err, shared.ErrTotalsMismatch)
		deps.forwarder.AssertNotCalled(t, "ForwardOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("estimate quoted for another address is rejected", func(t *testing.T) {
		svc, _ := newTestService(t, Config{OrderStoreEnabled: true})

		req := validRequest()
		req.Address.PostalCode = "73301"

		_, err := svc.Checkout(ctx, req)
		assert.ErrorIs(t, err, shared.ErrRateAddressMismatch)
	})

	t.Run("unsupported tax endpoint degrades instead of blocking", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, commerce.ErrTaxUnsupported)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{Status: commerce.ForwardStatusForwarded, VendorOrderID: 1}, nil)
		deps.orders.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil)

		result, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, StageDegraded, stageStatus(t, result, StageTaxCalculated))
		// the submitted tax total stands
		assert.True(t, result.TaxTotal.Equal(decimal.NewFromFloat(8.25)))
	})

	t.Run("tax backend failure rejects with upstream detail", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("tax request failed: status 500"))

		_, err := svc.Checkout(ctx, validRequest())
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "TAX_CALCULATION_FAILED", domainErr.Code)
	})

	t.Run("unconfigured vendor still acknowledges locally", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{Status: commerce.ForwardStatusSkipped, Reason: commerce.ReasonNotConfigured}, nil)
		deps.orders.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil)

		result, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, StageAcknowledged, result.Stage)
		assert.Equal(t, StageDegraded, stageStatus(t, result, StageForwarded))
	})

	t.Run("forwarder failure surfaces as a platform outage", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		upstream := fmt.Errorf("%w: %w", commerce.ErrPlatformRequestFailed,
			&commerce.StatusError{StatusCode: 503})
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, upstream)

		_, err := svc.Checkout(ctx, validRequest())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PLATFORM_UNAVAILABLE", domainErr.Code)
		assert.Contains(t, domainErr.Message, "upstream HTTP 503")
	})

	t.Run("disabled order store skips persistence", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: false})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{Status: commerce.ForwardStatusForwarded, VendorOrderID: 1}, nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil)

		result, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, StageSkipped, stageStatus(t, result, StagePersisted))
		deps.orders.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("commission failure never fails the checkout", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{Status: commerce.ForwardStatusForwarded, VendorOrderID: 1}, nil)
		deps.orders.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("ledger unavailable"))

		result, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		assert.Equal(t, StageAcknowledged, result.Stage)
		assert.Nil(t, result.Commission)
	})
}

func TestService_Checkout_Idempotency(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *serviceDeps) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})
		deps.tax.On("CalculateTax", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.TaxResult{Total: decimal.NewFromFloat(8.25)}, nil)
		deps.forwarder.On("ForwardOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&commerce.ForwardResult{Status: commerce.ForwardStatusForwarded, VendorOrderID: 9001}, nil)
		deps.orders.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		deps.commission.On("ApplyReferralCredit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&appreferral.CommissionResult{Amount: decimal.NewFromFloat(5.91)}, nil)
		return svc, deps
	}

	t.Run("same key and payload replays without a second order or commission", func(t *testing.T) {
		svc, deps := setup(t)

		first, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		require.False(t, first.Replayed)

		second, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.OrderID, second.OrderID)

		deps.orders.AssertNumberOfCalls(t, "Upsert", 1)
		deps.commission.AssertNumberOfCalls(t, "ApplyReferralCredit", 1)
		deps.forwarder.AssertNumberOfCalls(t, "ForwardOrder", 1)
	})

	t.Run("same key with a changed payload is a new order", func(t *testing.T) {
		svc, deps := setup(t)

		_, err := svc.Checkout(ctx, validRequest())
		require.NoError(t, err)

		changed := validRequest()
		changed.OrderID = "ord-2"
		changed.Items[0].Quantity = 3
		changed.GrandTotal = decimal.NewFromFloat(158.25)

		result, err := svc.Checkout(ctx, changed)
		require.NoError(t, err)
		assert.False(t, result.Replayed)
		assert.Equal(t, "ord-2", result.OrderID)
		deps.orders.AssertNumberOfCalls(t, "Upsert", 2)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("compensates upstream and transitions locally", func(t *testing.T) {
		svc, deps := newTestService(t, Config{OrderStoreEnabled: true})

		item, err := order.NewItem("101", "BPC-157 5mg", 1, decimal.NewFromInt(40))
		require.NoError(t, err)
		o, err := order.New("ord-9", []order.Item{item}, decimal.Zero, decimal.Zero, decimal.Zero, "USD")
		require.NoError(t, err)
		o.AttachVendor(order.VendorRef{OrderID: 9001})

		deps.orders.On("FindByID", mock.Anything, "ord-9").Return(o, nil)
		deps.forwarder.On("CancelOrder", mock.Anything, int64(9001), "payment failed", "").
			Return(&commerce.CancelResult{Status: commerce.ForwardStatusForwarded}, nil)
		deps.orders.On("Upsert", mock.Anything, o).Return(nil)

		outcome, err := svc.Cancel(ctx, "ord-9", "payment failed")
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, outcome.Status)
		assert.Equal(t, order.StatusCancelled, o.Status)
		require.NotNil(t, outcome.VendorCancel)
	})

	t.Run("disabled order store cannot cancel", func(t *testing.T) {
		svc, _ := newTestService(t, Config{OrderStoreEnabled: false})

		_, err := svc.Cancel(ctx, "ord-9", "")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ORDER_STORE_DISABLED", domainErr.Code)
	})
}
