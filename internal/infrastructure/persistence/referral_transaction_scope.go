package persistence

import (
	"context"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/referral"
	"gorm.io/gorm"
)

// GormReferralTransactionScope implements TransactionScope using GORM
// transactions. A commission touches the doctor balance and the ledger
// together; the scope keeps the two writes atomic.
type GormReferralTransactionScope struct {
	db *gorm.DB
}

// NewGormReferralTransactionScope creates a new GormReferralTransactionScope.
func NewGormReferralTransactionScope(db *gorm.DB) *GormReferralTransactionScope {
	return &GormReferralTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormReferralTransactionScope) Execute(ctx context.Context, fn func(repos appreferral.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormReferralTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormReferralTransactionalRepositories provides repositories scoped to one transaction.
type gormReferralTransactionalRepositories struct {
	tx *gorm.DB
}

// DoctorRepo returns the doctor repository scoped to the current transaction.
func (r *gormReferralTransactionalRepositories) DoctorRepo() referral.DoctorRepository {
	return NewGormDoctorRepository(r.tx)
}

// LedgerRepo returns the ledger repository scoped to the current transaction.
func (r *gormReferralTransactionalRepositories) LedgerRepo() referral.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// Ensure GormReferralTransactionScope implements TransactionScope
var _ appreferral.TransactionScope = (*GormReferralTransactionScope)(nil)

// Ensure gormReferralTransactionalRepositories implements TransactionalRepositories
var _ appreferral.TransactionalRepositories = (*gormReferralTransactionalRepositories)(nil)
