package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements referral.LedgerRepository using GORM.
// Ledger rows are append-only; there is no update or delete path.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts a new ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *referral.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByDoctor returns a doctor's ledger entries with the total count
func (r *GormLedgerRepository) FindByDoctor(ctx context.Context, doctorID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	return r.find(ctx, "doctor_id = ?", doctorID, filter)
}

// FindBySalesRep returns the ledger entries attributed to a sales rep
func (r *GormLedgerRepository) FindBySalesRep(ctx context.Context, salesRepID uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	return r.find(ctx, "sales_rep_id = ?", salesRepID, filter)
}

func (r *GormLedgerRepository) find(ctx context.Context, cond string, id uuid.UUID, filter shared.Filter) ([]*referral.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where(cond, id)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerSortFields, "entry_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var rows []models.LedgerEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]*referral.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, total, nil
}

// HasCreditForDoctor reports whether the doctor has ever received a credit
func (r *GormLedgerRepository) HasCreditForDoctor(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("doctor_id = ? AND direction = ?", doctorID, referral.LedgerDirectionCredit).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasEntryForOrder reports whether a commission entry already exists for the order
func (r *GormLedgerRepository) HasEntryForOrder(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormLedgerRepository implements the repository interface
var _ referral.LedgerRepository = (*GormLedgerRepository)(nil)
