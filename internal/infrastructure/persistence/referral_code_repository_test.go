package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

func TestGormReferralCodeRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReferralCodeRepository(db)
	ctx := context.Background()

	code, err := referral.NewAccountCode("K7M2P9")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, code))

	t.Run("finds by value case-insensitively", func(t *testing.T) {
		found, err := repo.FindByValue(ctx, "k7m2p9")
		require.NoError(t, err)
		assert.Equal(t, "K7M2P9", found.Value)
		assert.Equal(t, referral.CodeKindAccount, found.Kind)
		assert.Equal(t, referral.CodeStatusAssigned, found.Status)
		require.Len(t, found.History, 1)
		assert.Equal(t, "generated", found.History[0].Action)
	})

	t.Run("returns ErrNotFound for unknown value", func(t *testing.T) {
		_, err := repo.FindByValue(ctx, "NOSUCH")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormReferralCodeRepository_Save(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReferralCodeRepository(db)
	ctx := context.Background()

	t.Run("appends only new history events", func(t *testing.T) {
		code, err := referral.NewSalesRepCode("A1B2C", uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, code))

		referralID := uuid.New()
		require.NoError(t, code.Assign("admin@peptiva.com", referralID))
		require.NoError(t, repo.Save(ctx, code))
		// A second save with no new events must not duplicate the trail.
		require.NoError(t, repo.Save(ctx, code))

		found, err := repo.FindByValue(ctx, "A1B2C")
		require.NoError(t, err)
		assert.Equal(t, referral.CodeStatusAssigned, found.Status)
		require.NotNil(t, found.ReferralID)
		assert.Equal(t, referralID, *found.ReferralID)
		require.Len(t, found.History, 2)
		assert.Equal(t, "assigned", found.History[1].Action)
	})
}

func TestGormReferralCodeRepository_ActiveValueExists(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReferralCodeRepository(db)
	ctx := context.Background()

	code, err := referral.NewAccountCode("X9Y8Z7")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, code))

	t.Run("active code blocks the value", func(t *testing.T) {
		exists, err := repo.ActiveValueExists(ctx, "x9y8z7")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unknown value is free", func(t *testing.T) {
		exists, err := repo.ActiveValueExists(ctx, "FRESH1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("revoked code releases the value", func(t *testing.T) {
		require.NoError(t, code.Revoke("admin@peptiva.com"))
		require.NoError(t, repo.Save(ctx, code))

		exists, err := repo.ActiveValueExists(ctx, "X9Y8Z7")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormReferralCodeRepository_ValueReuse(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReferralCodeRepository(db)
	ctx := context.Background()

	t.Run("duplicate active value is rejected", func(t *testing.T) {
		first, err := referral.NewAccountCode("DUPE99")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, first))

		second, err := referral.NewAccountCode("DUPE99")
		require.NoError(t, err)
		err = repo.Create(ctx, second)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("retired value can be claimed again", func(t *testing.T) {
		code, err := referral.NewSalesRepCode("JDABC", uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, code))

		require.NoError(t, code.Retire("admin@peptiva.com"))
		require.NoError(t, repo.Save(ctx, code))

		exists, err := repo.ActiveValueExists(ctx, "JDABC")
		require.NoError(t, err)
		require.False(t, exists)

		reissued, err := referral.NewSalesRepCode("JDABC", uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, reissued))

		// Lookup must resolve to the active reissue, not the retired row.
		found, err := repo.FindByValue(ctx, "jdabc")
		require.NoError(t, err)
		assert.Equal(t, reissued.ID, found.ID)
		assert.Equal(t, referral.CodeStatusAvailable, found.Status)
	})
}

func TestGormReferralCodeRepository_FindBySalesRep(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReferralCodeRepository(db)
	ctx := context.Background()

	repID := uuid.New()
	for _, v := range []string{"JDOE1", "JDOE2"} {
		code, err := referral.NewSalesRepCode(v, repID)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, code))
	}
	other, err := referral.NewSalesRepCode("MLEE1", uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	codes, err := repo.FindBySalesRep(ctx, repID)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	for _, c := range codes {
		require.NotNil(t, c.SalesRepID)
		assert.Equal(t, repID, *c.SalesRepID)
	}
}
