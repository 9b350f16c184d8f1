package referral

import (
	"context"

	"github.com/google/uuid"

	"github.com/peptiva/backend/internal/domain/shared"
)

// CodeRepository persists referral codes
type CodeRepository interface {
	Create(ctx context.Context, code *Code) error
	Save(ctx context.Context, code *Code) error
	FindByValue(ctx context.Context, value string) (*Code, error)
	// ActiveValueExists reports whether a normalized value is taken in the
	// case-insensitive active set (available or assigned codes).
	ActiveValueExists(ctx context.Context, value string) (bool, error)
	FindBySalesRep(ctx context.Context, salesRepID uuid.UUID) ([]*Code, error)
}

// DoctorRepository persists doctor accounts
type DoctorRepository interface {
	Create(ctx context.Context, doctor *Doctor) error
	Save(ctx context.Context, doctor *Doctor) error
	FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// FindByIDForUpdate reads a doctor with a row lock held until the
	// surrounding transaction ends, for read-modify-write of the balance.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error)
	FindByReferralCode(ctx context.Context, code string) (*Doctor, error)
}

// LedgerRepository persists credit ledger entries. Entries are append-only.
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	FindByDoctor(ctx context.Context, doctorID uuid.UUID, filter shared.Filter) ([]*LedgerEntry, int64, error)
	FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*LedgerEntry, int64, error)
	// HasCreditForDoctor reports whether any credit entry exists for the
	// doctor, used to detect the first-order bonus.
	HasCreditForDoctor(ctx context.Context, doctorID uuid.UUID) (bool, error)
	// HasEntryForOrder reports whether a commission was already applied for
	// an order, guarding against double application on replays.
	HasEntryForOrder(ctx context.Context, orderID string) (bool, error)
}

// ProspectRepository persists referral prospects
type ProspectRepository interface {
	Create(ctx context.Context, prospect *Prospect) error
	Save(ctx context.Context, prospect *Prospect) error
	FindByID(ctx context.Context, id uuid.UUID) (*Prospect, error)
	FindByEmail(ctx context.Context, email string) (*Prospect, error)
	FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*Prospect, int64, error)
}
