package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

func TestGormDoctorRepository_CreditAppliedUnderLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormDoctorRepository(db)
	ctx := context.Background()

	doctor, err := referral.NewDoctor("Dr. Jane Smith", "jsmith@clinic.example.com")
	require.NoError(t, err)
	doctor.SetReferralCode("DRLOCK")
	require.NoError(t, repo.Create(ctx, doctor))

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByIDForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("credits accumulate across transactions", func(t *testing.T) {
		// Each credit transaction re-reads the row with the locked variant
		// before writing, so both increments must land on the balance.
		for i := 0; i < 2; i++ {
			err := db.Transaction(func(tx *gorm.DB) error {
				txRepo := NewGormDoctorRepository(tx)
				current, err := txRepo.FindByIDForUpdate(ctx, doctor.ID)
				if err != nil {
					return err
				}
				if err := current.ApplyCredit(decimal.NewFromFloat(5.91)); err != nil {
					return err
				}
				return txRepo.Save(ctx, current)
			})
			require.NoError(t, err)
		}

		found, err := repo.FindByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.True(t, found.CreditBalance.Equal(decimal.NewFromFloat(11.82)),
			"got %s", found.CreditBalance)
	})
}
