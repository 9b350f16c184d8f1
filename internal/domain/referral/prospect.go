package referral

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peptiva/backend/internal/domain/shared"
)

// ProspectStatus represents where a referral prospect sits in the funnel
type ProspectStatus string

const (
	ProspectStatusPending        ProspectStatus = "pending"
	ProspectStatusContacted      ProspectStatus = "contacted"
	ProspectStatusAccountCreated ProspectStatus = "account_created"
	ProspectStatusNurture        ProspectStatus = "nurture"
	ProspectStatusConverted      ProspectStatus = "converted"
	ProspectStatusContactForm    ProspectStatus = "contact_form"
)

// IsValid returns true if the status is valid
func (s ProspectStatus) IsValid() bool {
	switch s {
	case ProspectStatusPending, ProspectStatusContacted, ProspectStatusAccountCreated,
		ProspectStatusNurture, ProspectStatusConverted, ProspectStatusContactForm:
		return true
	}
	return false
}

// String returns the string representation of ProspectStatus
func (s ProspectStatus) String() string {
	return string(s)
}

// Prospect is a referral lead. Once a doctor account is linked, the owning
// sales-rep attribution is locked and cannot be silently reassigned by a
// later upsert.
type Prospect struct {
	shared.BaseEntity
	ReferringDoctorID *uuid.UUID
	SalesRepID        uuid.UUID
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	Status            ProspectStatus
	Notes             string
	AttributionLocked bool
}

// NewProspect creates a referral prospect owned by a sales rep
func NewProspect(salesRepID uuid.UUID, contactName, contactEmail string) (*Prospect, error) {
	if salesRepID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALES_REP", "Sales rep ID cannot be empty")
	}
	if contactName == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Contact name cannot be empty")
	}
	if contactEmail == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Contact email cannot be empty")
	}
	return &Prospect{
		BaseEntity:   shared.NewBaseEntity(),
		SalesRepID:   salesRepID,
		ContactName:  contactName,
		ContactEmail: strings.ToLower(strings.TrimSpace(contactEmail)),
		Status:       ProspectStatusPending,
	}, nil
}

// LinkDoctor links a doctor account to this prospect and locks the sales-rep
// attribution.
func (p *Prospect) LinkDoctor(doctorID uuid.UUID) error {
	if doctorID == uuid.Nil {
		return shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}
	p.ReferringDoctorID = &doctorID
	p.AttributionLocked = true
	if p.Status != ProspectStatusConverted {
		p.Status = ProspectStatusAccountCreated
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Reassign moves the prospect to another sales rep. Fails once attribution is
// locked.
func (p *Prospect) Reassign(salesRepID uuid.UUID) error {
	if salesRepID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALES_REP", "Sales rep ID cannot be empty")
	}
	if p.AttributionLocked {
		return shared.ErrAttributionLocked
	}
	p.SalesRepID = salesRepID
	p.UpdatedAt = time.Now()
	return nil
}

// UpdateStatus moves the prospect through the funnel
func (p *Prospect) UpdateStatus(status ProspectStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid prospect status")
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// AppendNote appends to the prospect's notes
func (p *Prospect) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if p.Notes != "" {
		p.Notes += "\n"
	}
	p.Notes += note
	p.UpdatedAt = time.Now()
}

// MarkConverted records the prospect's first completed purchase
func (p *Prospect) MarkConverted() {
	p.Status = ProspectStatusConverted
	p.UpdatedAt = time.Now()
}
