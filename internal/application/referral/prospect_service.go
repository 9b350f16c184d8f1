package referral

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
)

// UpsertProspectRequest carries the fields of a prospect upsert.
type UpsertProspectRequest struct {
	SalesRepID   uuid.UUID
	ContactName  string
	ContactEmail string
	ContactPhone string
	Status       string
	Note         string
}

// ProspectService manages referral prospects and doctor onboarding.
type ProspectService struct {
	prospects referral.ProspectRepository
	doctors   referral.DoctorRepository
	codeGen   *CodeService
	logger    *zap.Logger
}

// NewProspectService creates a new ProspectService
func NewProspectService(prospects referral.ProspectRepository, doctors referral.DoctorRepository, codeGen *CodeService, logger *zap.Logger) *ProspectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProspectService{prospects: prospects, doctors: doctors, codeGen: codeGen, logger: logger}
}

// Upsert creates or updates a prospect keyed by contact email. An upsert
// never reassigns a prospect whose attribution is locked; the existing owner
// is kept and the update otherwise proceeds.
func (s *ProspectService) Upsert(ctx context.Context, req UpsertProspectRequest) (*referral.Prospect, error) {
	existing, err := s.prospects.FindByEmail(ctx, req.ContactEmail)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		prospect, err := referral.NewProspect(req.SalesRepID, req.ContactName, req.ContactEmail)
		if err != nil {
			return nil, err
		}
		if err := s.applyUpdates(prospect, req); err != nil {
			return nil, err
		}
		if err := s.prospects.Create(ctx, prospect); err != nil {
			return nil, err
		}
		return prospect, nil
	}

	if !existing.AttributionLocked && existing.SalesRepID != req.SalesRepID {
		if err := existing.Reassign(req.SalesRepID); err != nil {
			return nil, err
		}
	} else if existing.AttributionLocked && existing.SalesRepID != req.SalesRepID {
		s.logger.Info("prospect attribution locked, keeping existing owner",
			zap.String("prospect_id", existing.ID.String()),
			zap.String("requested_sales_rep", req.SalesRepID.String()))
	}
	if req.ContactName != "" {
		existing.ContactName = req.ContactName
	}
	if err := s.applyUpdates(existing, req); err != nil {
		return nil, err
	}
	if err := s.prospects.Save(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ProspectService) applyUpdates(p *referral.Prospect, req UpsertProspectRequest) error {
	if req.ContactPhone != "" {
		p.ContactPhone = req.ContactPhone
	}
	if req.Status != "" {
		if err := p.UpdateStatus(referral.ProspectStatus(req.Status)); err != nil {
			return err
		}
	}
	p.AppendNote(req.Note)
	return nil
}

// RegisterDoctor creates a doctor account with a fresh account referral code
// and, when the email matches a prospect, links the account to it, locking
// the sales-rep attribution.
func (s *ProspectService) RegisterDoctor(ctx context.Context, name, email string) (*referral.Doctor, error) {
	doctor, err := referral.NewDoctor(name, email)
	if err != nil {
		return nil, err
	}
	code, err := s.codeGen.GenerateAccountCode(ctx)
	if err != nil {
		return nil, err
	}
	doctor.SetReferralCode(code.Value)
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}

	prospect, err := s.prospects.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return doctor, nil
		}
		return nil, err
	}
	if err := prospect.LinkDoctor(doctor.ID); err != nil {
		return nil, err
	}
	if err := s.prospects.Save(ctx, prospect); err != nil {
		return nil, err
	}
	s.logger.Info("doctor linked to prospect",
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("prospect_id", prospect.ID.String()))
	return doctor, nil
}

// ListBySalesRep returns the prospects a sales rep owns.
func (s *ProspectService) ListBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.Prospect, int64, error) {
	return s.prospects.FindBySalesRep(ctx, salesRepID, filter)
}
