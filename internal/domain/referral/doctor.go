package referral

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/shared"
)

// Doctor is a referring account. CreditBalance and ReferralCount are running
// aggregates maintained alongside the ledger; the ledger remains the source
// of truth and the balance must always equal the signed sum of entries.
type Doctor struct {
	shared.BaseEntity
	Name          string
	Email         string
	ReferralCode  string
	CreditBalance decimal.Decimal
	ReferralCount int
}

// NewDoctor creates a doctor account
func NewDoctor(name, email string) (*Doctor, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Doctor name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Doctor email cannot be empty")
	}
	return &Doctor{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		Email:         email,
		CreditBalance: decimal.Zero,
	}, nil
}

// ApplyCredit increases the running balance and referral count. Called only
// inside the same transaction that appends the matching ledger entry.
func (d *Doctor) ApplyCredit(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	d.CreditBalance = d.CreditBalance.Add(amount)
	d.ReferralCount++
	d.UpdatedAt = time.Now()
	return nil
}

// ApplyDebit decreases the running balance.
func (d *Doctor) ApplyDebit(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if d.CreditBalance.LessThan(amount) {
		return shared.NewDomainError("INSUFFICIENT_BALANCE", "Debit exceeds available credit balance")
	}
	d.CreditBalance = d.CreditBalance.Sub(amount)
	d.UpdatedAt = time.Now()
	return nil
}

// SetReferralCode attaches the doctor's own code value
func (d *Doctor) SetReferralCode(code string) {
	d.ReferralCode = NormalizeCode(code)
	d.UpdatedAt = time.Now()
}
