package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shared"
)

// MockForwarder is a mock implementation of commerce.Forwarder
type MockForwarder struct {
	mock.Mock
}

func (m *MockForwarder) ForwardOrder(ctx context.Context, o *order.Order, customer commerce.Customer) (*commerce.ForwardResult, error) {
	args := m.Called(ctx, o, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.ForwardResult), args.Error(1)
}

func (m *MockForwarder) CancelOrder(ctx context.Context, vendorOrderID int64, reason, statusOverride string) (*commerce.CancelResult, error) {
	args := m.Called(ctx, vendorOrderID, reason, statusOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.CancelResult), args.Error(1)
}

func (m *MockForwarder) MarkOrderPaid(ctx context.Context, vendorOrderID int64) error {
	args := m.Called(ctx, vendorOrderID)
	return args.Error(0)
}

func (m *MockForwarder) AddOrderNote(ctx context.Context, vendorOrderID int64, note string, customerVisible bool) error {
	args := m.Called(ctx, vendorOrderID, note, customerVisible)
	return args.Error(0)
}

func (m *MockForwarder) UpdateInventory(ctx context.Context, vendorProductID int64, quantity int) error {
	args := m.Called(ctx, vendorProductID, quantity)
	return args.Error(0)
}

func (m *MockForwarder) FetchOrderSummary(ctx context.Context, vendorOrderID int64) (*commerce.OrderSummary, error) {
	args := m.Called(ctx, vendorOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.OrderSummary), args.Error(1)
}

// MockTaxCalculator is a mock implementation of commerce.TaxCalculator
type MockTaxCalculator struct {
	mock.Mock
}

func (m *MockTaxCalculator) CalculateTax(ctx context.Context, o *order.Order, customer commerce.Customer) (*commerce.TaxResult, error) {
	args := m.Called(ctx, o, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.TaxResult), args.Error(1)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Upsert(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByVendorOrderID(ctx context.Context, vendorOrderID int64) (*order.Order, error) {
	args := m.Called(ctx, vendorOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*order.Order), args.Get(1).(int64), args.Error(2)
}

// MockCommissionApplier is a mock implementation of CommissionApplier
type MockCommissionApplier struct {
	mock.Mock
}

func (m *MockCommissionApplier) ApplyReferralCredit(ctx context.Context, code string, orderTotal decimal.Decimal, purchaserID uuid.UUID, orderID string) (*appreferral.CommissionResult, error) {
	args := m.Called(ctx, code, orderTotal, purchaserID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreferral.CommissionResult), args.Error(1)
}

// mapRecordStore is a minimal in-memory CheckoutRecordStore for tests.
type mapRecordStore struct {
	mu      sync.Mutex
	records map[string]shared.CheckoutRecord
}

func newMapRecordStore() *mapRecordStore {
	return &mapRecordStore{records: make(map[string]shared.CheckoutRecord)}
}

func (s *mapRecordStore) Put(_ context.Context, record shared.CheckoutRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.IdempotencyKey] = record
	return nil
}

func (s *mapRecordStore) Get(_ context.Context, key string) (shared.CheckoutRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	return record, ok, nil
}

func (s *mapRecordStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *mapRecordStore) Close() error { return nil }
