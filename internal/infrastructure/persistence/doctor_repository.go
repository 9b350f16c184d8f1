package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/infrastructure/persistence/models"
)

// GormDoctorRepository implements referral.DoctorRepository using GORM
type GormDoctorRepository struct {
	db *gorm.DB
}

// NewGormDoctorRepository creates a new GormDoctorRepository
func NewGormDoctorRepository(db *gorm.DB) *GormDoctorRepository {
	return &GormDoctorRepository{db: db}
}

// Create inserts a new doctor account
func (r *GormDoctorRepository) Create(ctx context.Context, doctor *referral.Doctor) error {
	model := models.DoctorModelFromDomain(doctor)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates an existing doctor account
func (r *GormDoctorRepository) Save(ctx context.Context, doctor *referral.Doctor) error {
	model := models.DoctorModelFromDomain(doctor)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a doctor by ID
func (r *GormDoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Doctor, error) {
	var model models.DoctorModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate reads a doctor under SELECT ... FOR UPDATE so concurrent
// balance updates serialize on the row.
func (r *GormDoctorRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*referral.Doctor, error) {
	var model models.DoctorModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReferralCode finds the doctor a referral code is assigned to
func (r *GormDoctorRepository) FindByReferralCode(ctx context.Context, code string) (*referral.Doctor, error) {
	var model models.DoctorModel
	if err := r.db.WithContext(ctx).
		First(&model, "UPPER(referral_code) = ?", strings.ToUpper(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormDoctorRepository implements the repository interface
var _ referral.DoctorRepository = (*GormDoctorRepository)(nil)
