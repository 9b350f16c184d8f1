package referral

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

const defaultCommissionPercent = 5.0

// CommissionResult reports an applied commission.
type CommissionResult struct {
	DoctorID        uuid.UUID       `json:"doctor_id"`
	SalesRepID      *uuid.UUID      `json:"sales_rep_id,omitempty"`
	OrderID         string          `json:"order_id"`
	Amount          decimal.Decimal `json:"amount"`
	FirstOrderBonus bool            `json:"first_order_bonus"`
}

// CommissionService attributes referral commissions and maintains the credit
// ledger.
type CommissionService struct {
	codes   referral.CodeRepository
	doctors referral.DoctorRepository
	ledger  referral.LedgerRepository
	scope   TransactionScope
	percent decimal.Decimal
	logger  *zap.Logger
}

// NewCommissionService creates a new CommissionService. percent is the
// commission percentage of the order total; zero falls back to the default 5%.
func NewCommissionService(
	codes referral.CodeRepository,
	doctors referral.DoctorRepository,
	ledger referral.LedgerRepository,
	scope TransactionScope,
	percent float64,
	logger *zap.Logger,
) *CommissionService {
	if percent <= 0 {
		percent = defaultCommissionPercent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommissionService{
		codes:   codes,
		doctors: doctors,
		ledger:  ledger,
		scope:   scope,
		percent: decimal.NewFromFloat(percent),
		logger:  logger,
	}
}

// ApplyReferralCredit credits the referring doctor a percentage of the order
// total. Returns nil without error when no commission applies: empty code,
// code that resolves to no account, self-referral, or a commission already
// recorded for the order. The balance increment and ledger append commit in
// one transaction.
func (s *CommissionService) ApplyReferralCredit(ctx context.Context, code string, orderTotal decimal.Decimal, purchaserID uuid.UUID, orderID string) (*CommissionResult, error) {
	code = referral.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	doctor, err := s.doctors.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("referral code resolves to no account", zap.String("code", code))
			return nil, nil
		}
		return nil, err
	}
	if doctor.ID == purchaserID {
		s.logger.Info("self-referral not rewarded",
			zap.String("code", code),
			zap.String("doctor_id", doctor.ID.String()))
		return nil, nil
	}

	if orderID != "" {
		applied, err := s.ledger.HasEntryForOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if applied {
			s.logger.Info("commission already applied for order", zap.String("order_id", orderID))
			return nil, nil
		}
	}

	amount := orderTotal.Mul(s.percent).Div(decimal.NewFromInt(100)).Round(2)
	if !amount.IsPositive() {
		return nil, nil
	}

	var salesRepID *uuid.UUID
	if issued, err := s.codes.FindByValue(ctx, code); err == nil {
		salesRepID = issued.SalesRepID
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	firstOrder, err := s.ledger.HasCreditForDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}
	firstOrder = !firstOrder

	result := &CommissionResult{
		DoctorID:        doctor.ID,
		SalesRepID:      salesRepID,
		OrderID:         orderID,
		Amount:          amount,
		FirstOrderBonus: firstOrder,
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Re-read inside the transaction with a row lock so concurrent
		// commissions do not clobber each other's balance increments.
		current, err := repos.DoctorRepo().FindByIDForUpdate(ctx, doctor.ID)
		if err != nil {
			return err
		}
		if err := current.ApplyCredit(amount); err != nil {
			return err
		}
		if err := repos.DoctorRepo().Save(ctx, current); err != nil {
			return err
		}

		entry, err := referral.NewLedgerEntry(doctor.ID, amount, referral.LedgerDirectionCredit,
			"Referral commission for order "+orderID)
		if err != nil {
			return err
		}
		if orderID != "" {
			entry.WithOrderID(orderID)
		}
		if salesRepID != nil {
			entry.WithSalesRepID(*salesRepID)
		}
		if firstOrder {
			entry.MarkFirstOrderBonus()
		}
		return repos.LedgerRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("referral commission applied",
		zap.String("order_id", orderID),
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("amount", amount.String()),
		zap.Bool("first_order_bonus", firstOrder))
	return result, nil
}

// ApplyDebit records a manual adjustment or credit redemption against a
// doctor's balance, atomically with the ledger append.
func (s *CommissionService) ApplyDebit(ctx context.Context, doctorID uuid.UUID, amount decimal.Decimal, reason string) (*referral.LedgerEntry, error) {
	var entry *referral.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		doctor, err := repos.DoctorRepo().FindByID(ctx, doctorID)
		if err != nil {
			return err
		}
		if err := doctor.ApplyDebit(amount); err != nil {
			return err
		}
		if err := repos.DoctorRepo().Save(ctx, doctor); err != nil {
			return err
		}
		entry, err = referral.NewLedgerEntry(doctorID, amount, referral.LedgerDirectionDebit, reason)
		if err != nil {
			return err
		}
		return repos.LedgerRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// LedgerForDoctor returns a doctor's ledger entries with the derived balance.
func (s *CommissionService) LedgerForDoctor(ctx context.Context, doctorID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	return s.ledger.FindByDoctor(ctx, doctorID, filter)
}

// LedgerForSalesRep returns the ledger entries attributed to a sales rep.
func (s *CommissionService) LedgerForSalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	return s.ledger.FindBySalesRep(ctx, salesRepID, filter)
}
