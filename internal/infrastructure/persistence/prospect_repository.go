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

// GormProspectRepository implements referral.ProspectRepository using GORM
type GormProspectRepository struct {
	db *gorm.DB
}

// NewGormProspectRepository creates a new GormProspectRepository
func NewGormProspectRepository(db *gorm.DB) *GormProspectRepository {
	return &GormProspectRepository{db: db}
}

// Create inserts a new prospect
func (r *GormProspectRepository) Create(ctx context.Context, prospect *referral.Prospect) error {
	model := models.ProspectModelFromDomain(prospect)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates an existing prospect
func (r *GormProspectRepository) Save(ctx context.Context, prospect *referral.Prospect) error {
	model := models.ProspectModelFromDomain(prospect)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a prospect by ID
func (r *GormProspectRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Prospect, error) {
	var model models.ProspectModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a prospect by contact email, case-insensitively
func (r *GormProspectRepository) FindByEmail(ctx context.Context, email string) (*referral.Prospect, error) {
	var model models.ProspectModel
	if err := r.db.WithContext(ctx).
		First(&model, "LOWER(contact_email) = ?", strings.ToLower(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySalesRep returns the prospects assigned to a sales rep with the total count
func (r *GormProspectRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.Prospect, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProspectModel{}).
		Where("sales_rep_id = ?", salesRepID)

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(contact_name) LIKE ? OR LOWER(contact_email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ProspectSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var rows []models.ProspectModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	prospects := make([]*referral.Prospect, len(rows))
	for i := range rows {
		prospects[i] = rows[i].ToDomain()
	}
	return prospects, total, nil
}

// Ensure GormProspectRepository implements the repository interface
var _ referral.ProspectRepository = (*GormProspectRepository)(nil)
