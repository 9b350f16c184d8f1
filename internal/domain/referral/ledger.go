package referral

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/shared"
)

// LedgerDirection represents the sign of a credit ledger entry
type LedgerDirection string

const (
	// LedgerDirectionCredit increases the doctor's balance
	LedgerDirectionCredit LedgerDirection = "CREDIT"
	// LedgerDirectionDebit decreases the doctor's balance
	LedgerDirectionDebit LedgerDirection = "DEBIT"
)

// IsValid returns true if the direction is valid
func (d LedgerDirection) IsValid() bool {
	return d == LedgerDirectionCredit || d == LedgerDirectionDebit
}

// String returns the string representation of LedgerDirection
func (d LedgerDirection) String() string {
	return string(d)
}

// LedgerEntry is an immutable record of a credit balance change. Corrections
// are made with new entries, never by editing; a doctor's balance is always
// the signed sum of their entries.
type LedgerEntry struct {
	shared.BaseEntity
	DoctorID        uuid.UUID
	SalesRepID      *uuid.UUID
	OrderID         *string
	Amount          decimal.Decimal // Always positive, direction carries the sign
	Direction       LedgerDirection
	FirstOrderBonus bool
	Reason          string
	EntryDate       time.Time
}

// NewLedgerEntry creates a ledger entry
func NewLedgerEntry(doctorID uuid.UUID, amount decimal.Decimal, direction LedgerDirection, reason string) (*LedgerEntry, error) {
	if doctorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Invalid ledger direction")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Reason cannot be empty")
	}

	return &LedgerEntry{
		BaseEntity: shared.NewBaseEntity(),
		DoctorID:   doctorID,
		Amount:     amount,
		Direction:  direction,
		Reason:     reason,
		EntryDate:  time.Now(),
	}, nil
}

// WithOrderID links the entry to the order that produced it
func (e *LedgerEntry) WithOrderID(orderID string) *LedgerEntry {
	e.OrderID = &orderID
	return e
}

// WithSalesRepID attributes the entry to a sales rep
func (e *LedgerEntry) WithSalesRepID(salesRepID uuid.UUID) *LedgerEntry {
	e.SalesRepID = &salesRepID
	return e
}

// MarkFirstOrderBonus flags the entry as a first-order bonus
func (e *LedgerEntry) MarkFirstOrderBonus() *LedgerEntry {
	e.FirstOrderBonus = true
	return e
}

// SignedAmount returns the amount with its direction applied.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == LedgerDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance sums a doctor's entries. Entries for other doctors are ignored so
// callers can pass a mixed slice.
func Balance(doctorID uuid.UUID, entries []*LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.DoctorID == doctorID {
			total = total.Add(e.SignedAmount())
		}
	}
	return total
}
