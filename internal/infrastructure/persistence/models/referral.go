package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/referral"
)

// ReferralCodeModel is the persistence model for a referral code and its
// audit trail.
type ReferralCodeModel struct {
	BaseModel
	// The unique index is partial: only available and assigned codes block a
	// value, so retired and revoked codes free it up for reuse.
	Value      string                   `gorm:"type:varchar(50);not null;uniqueIndex:ux_referral_codes_active_value,where:status = 'available' OR status = 'assigned'"`
	Kind       referral.CodeKind        `gorm:"type:varchar(20);not null"`
	SalesRepID *uuid.UUID               `gorm:"type:uuid;index"`
	ReferralID *uuid.UUID               `gorm:"type:uuid;index"`
	Status     referral.CodeStatus      `gorm:"type:varchar(20);not null;default:'available';index"`
	Events     []ReferralCodeEventModel `gorm:"foreignKey:CodeID;references:ID"`
}

// TableName returns the table name for GORM
func (ReferralCodeModel) TableName() string {
	return "referral_codes"
}

// ToDomain converts the persistence model to a domain Code entity.
func (m *ReferralCodeModel) ToDomain() *referral.Code {
	code := &referral.Code{
		BaseEntity: m.BaseModel.ToDomain(),
		Value:      m.Value,
		Kind:       m.Kind,
		SalesRepID: m.SalesRepID,
		ReferralID: m.ReferralID,
		Status:     m.Status,
		History:    make([]referral.CodeEvent, len(m.Events)),
	}
	for i, ev := range m.Events {
		code.History[i] = referral.CodeEvent{
			Action:          ev.Action,
			Actor:           ev.Actor,
			ResultingStatus: ev.ResultingStatus,
			OccurredAt:      ev.OccurredAt,
		}
	}
	return code
}

// FromDomain populates the persistence model from a domain Code entity.
func (m *ReferralCodeModel) FromDomain(c *referral.Code) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Value = c.Value
	m.Kind = c.Kind
	m.SalesRepID = c.SalesRepID
	m.ReferralID = c.ReferralID
	m.Status = c.Status
	m.Events = make([]ReferralCodeEventModel, len(c.History))
	for i, ev := range c.History {
		m.Events[i] = ReferralCodeEventModel{
			CodeID:          c.ID,
			Action:          ev.Action,
			Actor:           ev.Actor,
			ResultingStatus: ev.ResultingStatus,
			OccurredAt:      ev.OccurredAt,
		}
	}
}

// ReferralCodeModelFromDomain creates a new persistence model from a domain Code entity.
func ReferralCodeModelFromDomain(c *referral.Code) *ReferralCodeModel {
	m := &ReferralCodeModel{}
	m.FromDomain(c)
	return m
}

// ReferralCodeEventModel is an append-only audit record of a code lifecycle
// transition.
type ReferralCodeEventModel struct {
	ID              uint                `gorm:"primary_key;autoIncrement"`
	CodeID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action          string              `gorm:"type:varchar(30);not null"`
	Actor           string              `gorm:"type:varchar(100)"`
	ResultingStatus referral.CodeStatus `gorm:"type:varchar(20);not null"`
	OccurredAt      time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReferralCodeEventModel) TableName() string {
	return "referral_code_events"
}

// DoctorModel is the persistence model for a referring doctor account.
type DoctorModel struct {
	BaseModel
	Name          string          `gorm:"type:varchar(200);not null"`
	Email         string          `gorm:"type:varchar(200);not null;index"`
	ReferralCode  string          `gorm:"type:varchar(50);uniqueIndex"`
	CreditBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReferralCount int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DoctorModel) TableName() string {
	return "doctors"
}

// ToDomain converts the persistence model to a domain Doctor entity.
func (m *DoctorModel) ToDomain() *referral.Doctor {
	return &referral.Doctor{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Email:         m.Email,
		ReferralCode:  m.ReferralCode,
		CreditBalance: m.CreditBalance,
		ReferralCount: m.ReferralCount,
	}
}

// FromDomain populates the persistence model from a domain Doctor entity.
func (m *DoctorModel) FromDomain(d *referral.Doctor) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.Name = d.Name
	m.Email = d.Email
	m.ReferralCode = d.ReferralCode
	m.CreditBalance = d.CreditBalance
	m.ReferralCount = d.ReferralCount
}

// DoctorModelFromDomain creates a new persistence model from a domain Doctor entity.
func DoctorModelFromDomain(d *referral.Doctor) *DoctorModel {
	m := &DoctorModel{}
	m.FromDomain(d)
	return m
}

// LedgerEntryModel is the persistence model for a credit ledger entry.
// Rows are append-only and never updated after insert.
type LedgerEntryModel struct {
	BaseModel
	DoctorID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	SalesRepID      *uuid.UUID               `gorm:"type:uuid;index"`
	OrderID         *string                  `gorm:"type:varchar(64);index"`
	Amount          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Direction       referral.LedgerDirection `gorm:"type:varchar(10);not null"`
	FirstOrderBonus bool                     `gorm:"not null;default:false"`
	Reason          string                   `gorm:"type:varchar(500)"`
	EntryDate       time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *referral.LedgerEntry {
	return &referral.LedgerEntry{
		BaseEntity:      m.BaseModel.ToDomain(),
		DoctorID:        m.DoctorID,
		SalesRepID:      m.SalesRepID,
		OrderID:         m.OrderID,
		Amount:          m.Amount,
		Direction:       m.Direction,
		FirstOrderBonus: m.FirstOrderBonus,
		Reason:          m.Reason,
		EntryDate:       m.EntryDate,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry entity.
func (m *LedgerEntryModel) FromDomain(e *referral.LedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.DoctorID = e.DoctorID
	m.SalesRepID = e.SalesRepID
	m.OrderID = e.OrderID
	m.Amount = e.Amount
	m.Direction = e.Direction
	m.FirstOrderBonus = e.FirstOrderBonus
	m.Reason = e.Reason
	m.EntryDate = e.EntryDate
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry entity.
func LedgerEntryModelFromDomain(e *referral.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}

// ProspectModel is the persistence model for a referral prospect.
type ProspectModel struct {
	BaseModel
	ReferringDoctorID *uuid.UUID              `gorm:"type:uuid;index"`
	SalesRepID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	ContactName       string                  `gorm:"type:varchar(200);not null"`
	ContactEmail      string                  `gorm:"type:varchar(200);not null;index"`
	ContactPhone      string                  `gorm:"type:varchar(50)"`
	Status            referral.ProspectStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes             string                  `gorm:"type:text"`
	AttributionLocked bool                    `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProspectModel) TableName() string {
	return "prospects"
}

// ToDomain converts the persistence model to a domain Prospect entity.
func (m *ProspectModel) ToDomain() *referral.Prospect {
	return &referral.Prospect{
		BaseEntity:        m.BaseModel.ToDomain(),
		ReferringDoctorID: m.ReferringDoctorID,
		SalesRepID:        m.SalesRepID,
		ContactName:       m.ContactName,
		ContactEmail:      m.ContactEmail,
		ContactPhone:      m.ContactPhone,
		Status:            m.Status,
		Notes:             m.Notes,
		AttributionLocked: m.AttributionLocked,
	}
}

// FromDomain populates the persistence model from a domain Prospect entity.
func (m *ProspectModel) FromDomain(p *referral.Prospect) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.ReferringDoctorID = p.ReferringDoctorID
	m.SalesRepID = p.SalesRepID
	m.ContactName = p.ContactName
	m.ContactEmail = p.ContactEmail
	m.ContactPhone = p.ContactPhone
	m.Status = p.Status
	m.Notes = p.Notes
	m.AttributionLocked = p.AttributionLocked
}

// ProspectModelFromDomain creates a new persistence model from a domain Prospect entity.
func ProspectModelFromDomain(p *referral.Prospect) *ProspectModel {
	m := &ProspectModel{}
	m.FromDomain(p)
	return m
}
