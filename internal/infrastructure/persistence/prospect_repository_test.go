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

func TestGormProspectRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProspectRepository(db)
	ctx := context.Background()

	repID := uuid.New()
	prospect, err := referral.NewProspect(repID, "Pat Morgan", "pat.morgan@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, prospect))

	t.Run("finds by ID", func(t *testing.T) {
		found, err := repo.FindByID(ctx, prospect.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pat Morgan", found.ContactName)
		assert.Equal(t, referral.ProspectStatusPending, found.Status)
		assert.False(t, found.AttributionLocked)
	})

	t.Run("finds by email case-insensitively", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "Pat.Morgan@Example.com")
		require.NoError(t, err)
		assert.Equal(t, prospect.ID, found.ID)
	})

	t.Run("returns ErrNotFound for unknown email", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save persists status and attribution", func(t *testing.T) {
		doctorID := uuid.New()
		require.NoError(t, prospect.LinkDoctor(doctorID))
		require.NoError(t, repo.Save(ctx, prospect))

		found, err := repo.FindByID(ctx, prospect.ID)
		require.NoError(t, err)
		require.NotNil(t, found.ReferringDoctorID)
		assert.Equal(t, doctorID, *found.ReferringDoctorID)
		assert.True(t, found.AttributionLocked)
	})

	t.Run("finds by sales rep with search", func(t *testing.T) {
		other, err := referral.NewProspect(repID, "Sam Quinn", "sam.quinn@example.com")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))

		all, total, err := repo.FindBySalesRep(ctx, repID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)

		matched, total, err := repo.FindBySalesRep(ctx, repID, shared.Filter{
			Page: 1, PageSize: 10, Search: "quinn",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, matched, 1)
		assert.Equal(t, "Sam Quinn", matched[0].ContactName)
	})
}
