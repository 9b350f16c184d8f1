package referral

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

// MockCodeRepository is a mock implementation of referral.CodeRepository
type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) Create(ctx context.Context, code *referral.Code) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockCodeRepository) Save(ctx context.Context, code *referral.Code) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockCodeRepository) FindByValue(ctx context.Context, value string) (*referral.Code, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Code), args.Error(1)
}

func (m *MockCodeRepository) ActiveValueExists(ctx context.Context, value string) (bool, error) {
	args := m.Called(ctx, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockCodeRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID) ([]*referral.Code, error) {
	args := m.Called(ctx, salesRepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*referral.Code), args.Error(1)
}

// MockDoctorRepository is a mock implementation of referral.DoctorRepository
type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) Create(ctx context.Context, doctor *referral.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) Save(ctx context.Context, doctor *referral.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*referral.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) FindByReferralCode(ctx context.Context, code string) (*referral.Doctor, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Doctor), args.Error(1)
}

// MockLedgerRepository is a mock implementation of referral.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *referral.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	args := m.Called(ctx, doctorID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*referral.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	args := m.Called(ctx, salesRepID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*referral.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) HasCreditForDoctor(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, doctorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) HasEntryForOrder(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

// MockProspectRepository is a mock implementation of referral.ProspectRepository
type MockProspectRepository struct {
	mock.Mock
}

func (m *MockProspectRepository) Create(ctx context.Context, prospect *referral.Prospect) error {
	args := m.Called(ctx, prospect)
	return args.Error(0)
}

func (m *MockProspectRepository) Save(ctx context.Context, prospect *referral.Prospect) error {
	args := m.Called(ctx, prospect)
	return args.Error(0)
}

func (m *MockProspectRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Prospect, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Prospect), args.Error(1)
}

func (m *MockProspectRepository) FindByEmail(ctx context.Context, email string) (*referral.Prospect, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Prospect), args.Error(1)
}

func (m *MockProspectRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.Prospect, int64, error) {
	args := m.Called(ctx, salesRepID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*referral.Prospect), args.Get(1).(int64), args.Error(2)
}

// stubTransactionScope runs the transactional function against plain
// repositories with no real transaction, which is enough for service tests.
type stubTransactionScope struct {
	doctors referral.DoctorRepository
	ledger  referral.LedgerRepository
}

func (s *stubTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *stubTransactionScope) DoctorRepo() referral.DoctorRepository { return s.doctors }
func (s *stubTransactionScope) LedgerRepo() referral.LedgerRepository { return s.ledger }
