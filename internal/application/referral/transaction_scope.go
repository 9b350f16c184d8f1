package referral

import (
	"context"

	"github.com/peptiva/backend/internal/domain/referral"
)

// TransactionalRepositories provides access to the repositories a commission
// touches, scoped to one transaction.
type TransactionalRepositories interface {
	DoctorRepo() referral.DoctorRepository
	LedgerRepo() referral.LedgerRepository
}

// TransactionScope executes a function atomically. The balance increment and
// the ledger append either both commit or both roll back; a commission is
// never partially applied.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
