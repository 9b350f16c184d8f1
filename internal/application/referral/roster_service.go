package referral

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

// SyncMode selects the deletion semantics of a roster sync. The mode is
// always explicit in the request; it is never inferred from payload shape.
type SyncMode string

const (
	// SyncModeReplaceAll mirrors the payload: missing codes are created and
	// active codes absent from the payload are retired.
	SyncModeReplaceAll SyncMode = "replace_all"
	// SyncModeUpsertOnly creates missing codes and never touches existing ones.
	SyncModeUpsertOnly SyncMode = "upsert_only"
	// SyncModeMerge creates missing codes and re-attaches existing active
	// codes to the syncing sales rep; absent codes are left untouched.
	SyncModeMerge SyncMode = "merge"
)

// IsValid checks if the sync mode is known
func (m SyncMode) IsValid() bool {
	switch m {
	case SyncModeReplaceAll, SyncModeUpsertOnly, SyncModeMerge:
		return true
	}
	return false
}

// SyncResult summarizes one roster sync run.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Retired int `json:"retired"`
}

// RosterService mirrors a sales rep's externally managed code roster into the
// local code set.
type RosterService struct {
	codes  referral.CodeRepository
	logger *zap.Logger
}

// NewRosterService creates a new RosterService
func NewRosterService(codes referral.CodeRepository, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{codes: codes, logger: logger}
}

// Sync reconciles the sales rep's codes against the payload values per the
// given mode. The actor is recorded on every resulting transition.
func (s *RosterService) Sync(ctx context.Context, salesRepID uuid.UUID, values []string, mode SyncMode, actor string) (*SyncResult, error) {
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_SYNC_MODE", "Sync mode must be replace_all, upsert_only or merge")
	}

	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		normalized := referral.NormalizeCode(v)
		if normalized != "" {
			wanted[normalized] = true
		}
	}

	result := &SyncResult{}
	for value := range wanted {
		created, updated, err := s.syncOne(ctx, salesRepID, value, mode)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		}
		if updated {
			result.Updated++
		}
	}

	if mode == SyncModeReplaceAll {
		existing, err := s.codes.FindBySalesRep(ctx, salesRepID)
		if err != nil {
			return nil, err
		}
		for _, code := range existing {
			if wanted[code.Value] || !code.IsActive() {
				continue
			}
			if err := code.Retire(actor); err != nil {
				return nil, err
			}
			if err := s.codes.Save(ctx, code); err != nil {
				return nil, err
			}
			result.Retired++
		}
	}

	s.logger.Info("roster sync completed",
		zap.String("sales_rep_id", salesRepID.String()),
		zap.String("mode", string(mode)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("retired", result.Retired))
	return result, nil
}

func (s *RosterService) syncOne(ctx context.Context, salesRepID uuid.UUID, value string, mode SyncMode) (created, updated bool, err error) {
	existing, err := s.codes.FindByValue(ctx, value)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return false, false, err
		}
		code, err := referral.NewSalesRepCode(value, salesRepID)
		if err != nil {
			return false, false, err
		}
		if err := s.codes.Create(ctx, code); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	if mode == SyncModeUpsertOnly {
		return false, false, nil
	}
	// Merge (and replace_all) re-attach an active code that drifted to a
	// different owner. Revoked and retired codes stay where they are.
	if !existing.IsActive() {
		return false, false, nil
	}
	if existing.SalesRepID != nil && *existing.SalesRepID == salesRepID {
		return false, false, nil
	}
	existing.SalesRepID = &salesRepID
	if err := s.codes.Save(ctx, existing); err != nil {
		return false, false, err
	}
	return false, true, nil
}
