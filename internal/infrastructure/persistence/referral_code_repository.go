package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/infrastructure/persistence/models"
)

// GormReferralCodeRepository implements referral.CodeRepository using GORM
type GormReferralCodeRepository struct {
	db *gorm.DB
}

// NewGormReferralCodeRepository creates a new GormReferralCodeRepository
func NewGormReferralCodeRepository(db *gorm.DB) *GormReferralCodeRepository {
	return &GormReferralCodeRepository{db: db}
}

// Create inserts a new referral code with its initial history. A value
// collision with another active code yields shared.ErrAlreadyExists so the
// generator can retry with a fresh value.
func (r *GormReferralCodeRepository) Create(ctx context.Context, code *referral.Code) error {
	model := models.ReferralCodeModelFromDomain(code)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save updates a referral code and appends any new history events. Events
// already persisted are never rewritten.
func (r *GormReferralCodeRepository) Save(ctx context.Context, code *referral.Code) error {
	model := models.ReferralCodeModelFromDomain(code)
	events := model.Events
	model.Events = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		var persisted int64
		if err := tx.Model(&models.ReferralCodeEventModel{}).
			Where("code_id = ?", model.ID).
			Count(&persisted).Error; err != nil {
			return err
		}
		if int(persisted) >= len(events) {
			return nil
		}
		newEvents := events[persisted:]
		return tx.Create(&newEvents).Error
	})
}

// FindByValue finds a referral code by its normalized value. A reused value
// can match several rows; the active one wins, then the most recent.
func (r *GormReferralCodeRepository) FindByValue(ctx context.Context, value string) (*referral.Code, error) {
	var model models.ReferralCodeModel
	if err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC, id ASC")
		}).
		Where("UPPER(value) = ?", strings.ToUpper(value)).
		Order("CASE WHEN status IN ('available', 'assigned') THEN 0 ELSE 1 END, created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ActiveValueExists reports whether the value collides with an available or
// assigned code, case-insensitively. Revoked and retired codes do not block
// reuse of the value.
func (r *GormReferralCodeRepository) ActiveValueExists(ctx context.Context, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralCodeModel{}).
		Where("UPPER(value) = ? AND status IN ?",
			strings.ToUpper(value),
			[]referral.CodeStatus{referral.CodeStatusAvailable, referral.CodeStatusAssigned}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindBySalesRep finds all codes owned by a sales rep
func (r *GormReferralCodeRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID) ([]*referral.Code, error) {
	var rows []models.ReferralCodeModel
	if err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC, id ASC")
		}).
		Where("sales_rep_id = ?", salesRepID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	codes := make([]*referral.Code, len(rows))
	for i := range rows {
		codes[i] = rows[i].ToDomain()
	}
	return codes, nil
}

// Ensure GormReferralCodeRepository implements the repository interface
var _ referral.CodeRepository = (*GormReferralCodeRepository)(nil)
