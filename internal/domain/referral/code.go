package referral

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peptiva/backend/internal/domain/shared"
)

// CodeKind distinguishes how a referral code was issued.
type CodeKind string

const (
	// CodeKindAccount is a random 6-character code generated for a doctor account
	CodeKindAccount CodeKind = "ACCOUNT"
	// CodeKindSalesRep is a 5-letter code derived from a sales rep's initials
	CodeKindSalesRep CodeKind = "SALES_REP"
)

// IsValid returns true if the code kind is valid
func (k CodeKind) IsValid() bool {
	switch k {
	case CodeKindAccount, CodeKindSalesRep:
		return true
	}
	return false
}

// CodeStatus represents the lifecycle status of a sales-rep-issued code
type CodeStatus string

const (
	CodeStatusAvailable CodeStatus = "available"
	CodeStatusAssigned  CodeStatus = "assigned"
	CodeStatusRevoked   CodeStatus = "revoked"
	CodeStatusRetired   CodeStatus = "retired"
)

// IsValid returns true if the status is valid
func (s CodeStatus) IsValid() bool {
	switch s {
	case CodeStatusAvailable, CodeStatusAssigned, CodeStatusRevoked, CodeStatusRetired:
		return true
	}
	return false
}

// String returns the string representation of CodeStatus
func (s CodeStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s CodeStatus) CanTransitionTo(target CodeStatus) bool {
	switch s {
	case CodeStatusAvailable:
		return target == CodeStatusAssigned || target == CodeStatusRetired
	case CodeStatusAssigned:
		return target == CodeStatusRevoked || target == CodeStatusRetired
	case CodeStatusRevoked, CodeStatusRetired:
		return false
	}
	return false
}

// CodeEvent is one entry in a code's append-only transition history.
type CodeEvent struct {
	Action          string     `json:"action"`
	Actor           string     `json:"actor"`
	ResultingStatus CodeStatus `json:"resulting_status"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// Code is a referral code. Code values are unique case-insensitively across
// the active set; status transitions are appended to History, never
// overwritten.
type Code struct {
	shared.BaseEntity
	Value      string
	Kind       CodeKind
	SalesRepID *uuid.UUID
	ReferralID *uuid.UUID
	Status     CodeStatus
	History    []CodeEvent
}

// NormalizeCode upper-cases and trims a code value for comparison and storage.
func NormalizeCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NewAccountCode creates an account-kind code. Account codes are born
// assigned: they belong to the doctor account they were generated for.
func NewAccountCode(value string) (*Code, error) {
	value = NormalizeCode(value)
	if err := validateCodeValue(value); err != nil {
		return nil, err
	}
	c := &Code{
		BaseEntity: shared.NewBaseEntity(),
		Value:      value,
		Kind:       CodeKindAccount,
		Status:     CodeStatusAssigned,
	}
	c.appendEvent("generated", "system", CodeStatusAssigned)
	return c, nil
}

// NewSalesRepCode creates a sales-rep-issued code in the available state.
func NewSalesRepCode(value string, salesRepID uuid.UUID) (*Code, error) {
	value = NormalizeCode(value)
	if err := validateCodeValue(value); err != nil {
		return nil, err
	}
	if salesRepID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALES_REP", "Sales rep ID cannot be empty")
	}
	c := &Code{
		BaseEntity: shared.NewBaseEntity(),
		Value:      value,
		Kind:       CodeKindSalesRep,
		SalesRepID: &salesRepID,
		Status:     CodeStatusAvailable,
	}
	c.appendEvent("issued", salesRepID.String(), CodeStatusAvailable)
	return c, nil
}

func validateCodeValue(value string) error {
	if len(value) < 5 || len(value) > 6 {
		return shared.NewDomainError("INVALID_CODE", "Referral code must be 5 or 6 characters")
	}
	for _, r := range value {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return shared.NewDomainError("INVALID_CODE", "Referral code must be alphanumeric")
		}
	}
	return nil
}

// Assign links the code to a referral prospect
func (c *Code) Assign(actor string, referralID uuid.UUID) error {
	if referralID == uuid.Nil {
		return shared.NewDomainError("INVALID_REFERRAL", "Referral ID cannot be empty")
	}
	if err := c.transition(CodeStatusAssigned); err != nil {
		return err
	}
	c.ReferralID = &referralID
	c.appendEvent("assigned", actor, CodeStatusAssigned)
	return nil
}

// Revoke invalidates an assigned code
func (c *Code) Revoke(actor string) error {
	if err := c.transition(CodeStatusRevoked); err != nil {
		return err
	}
	c.appendEvent("revoked", actor, CodeStatusRevoked)
	return nil
}

// Retire permanently removes the code from circulation
func (c *Code) Retire(actor string) error {
	if err := c.transition(CodeStatusRetired); err != nil {
		return err
	}
	c.appendEvent("retired", actor, CodeStatusRetired)
	return nil
}

// IsActive reports whether the code still occupies its value in the
// case-insensitive uniqueness set.
func (c *Code) IsActive() bool {
	return c.Status == CodeStatusAvailable || c.Status == CodeStatusAssigned
}

func (c *Code) transition(target CodeStatus) error {
	if !c.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition code from "+c.Status.String()+" to "+target.String())
	}
	c.Status = target
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Code) appendEvent(action, actor string, resulting CodeStatus) {
	c.History = append(c.History, CodeEvent{
		Action:          action,
		Actor:           actor,
		ResultingStatus: resulting,
		OccurredAt:      time.Now(),
	})
}
