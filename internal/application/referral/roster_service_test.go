package referral

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

func TestRosterService_Sync(t *testing.T) {
	ctx := context.Background()
	repID := uuid.New()

	t.Run("rejects unknown mode", func(t *testing.T) {
		svc := NewRosterService(new(MockCodeRepository), nil)

		_, err := svc.Sync(ctx, repID, []string{"JDABC"}, SyncMode("mirror"), "admin")
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_SYNC_MODE", domainErr.Code)
	})

	t.Run("upsert_only creates missing and never retires", func(t *testing.T) {
		repo := new(MockCodeRepository)
		svc := NewRosterService(repo, nil)

		kept, err := referral.NewSalesRepCode("JDKEP", repID)
		require.NoError(t, err)
		repo.On("FindByValue", mock.Anything, "JDKEP").Return(kept, nil)
		repo.On("FindByValue", mock.Anything, "JDNEW").Return(nil, shared.ErrNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*referral.Code")).Return(nil)

		result, err := svc.Sync(ctx, repID, []string{"jdkep", "JDNEW"}, SyncModeUpsertOnly, "admin")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 0, result.Updated)
		assert.Equal(t, 0, result.Retired)
		repo.AssertNotCalled(t, "FindBySalesRep", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("merge re-attaches drifted active codes", func(t *testing.T) {
		repo := new(MockCodeRepository)
		svc := NewRosterService(repo, nil)

		drifted, err := referral.NewSalesRepCode("MLABC", uuid.New())
		require.NoError(t, err)
		repo.On("FindByValue", mock.Anything, "MLABC").Return(drifted, nil)
		repo.On("Save", mock.Anything, drifted).Return(nil)

		result, err := svc.Sync(ctx, repID, []string{"MLABC"}, SyncModeMerge, "admin")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Updated)
		require.NotNil(t, drifted.SalesRepID)
		assert.Equal(t, repID, *drifted.SalesRepID)
		repo.AssertNotCalled(t, "FindBySalesRep", mock.Anything, mock.Anything)
	})

	t.Run("replace_all retires active codes absent from payload", func(t *testing.T) {
		repo := new(MockCodeRepository)
		svc := NewRosterService(repo, nil)

		kept, err := referral.NewSalesRepCode("JDKEP", repID)
		require.NoError(t, err)
		gone, err := referral.NewSalesRepCode("JDGON", repID)
		require.NoError(t, err)
		already, err := referral.NewSalesRepCode("JDOLD", repID)
		require.NoError(t, err)
		require.NoError(t, already.Retire("admin"))

		repo.On("FindByValue", mock.Anything, "JDKEP").Return(kept, nil)
		repo.On("FindBySalesRep", mock.Anything, repID).Return([]*referral.Code{kept, gone, already}, nil)
		repo.On("Save", mock.Anything, gone).Return(nil)

		result, err := svc.Sync(ctx, repID, []string{"JDKEP"}, SyncModeReplaceAll, "admin")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Created)
		assert.Equal(t, 1, result.Retired)
		assert.Equal(t, referral.CodeStatusRetired, gone.Status)
		// the retained and already-retired codes are untouched
		assert.Equal(t, referral.CodeStatusAvailable, kept.Status)
		repo.AssertExpectations(t)
	})
}
