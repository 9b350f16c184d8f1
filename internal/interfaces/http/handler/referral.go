package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appreferral "github.com/peptiva/backend/internal/application/referral"
	"github.com/peptiva/backend/internal/domain/referral"
	"github.com/peptiva/backend/internal/domain/shared"
	"github.com/peptiva/backend/internal/interfaces/http/dto"
)

// ReferralHandler handles referral code, ledger and roster sync endpoints
type ReferralHandler struct {
	BaseHandler
	codeService       *appreferral.CodeService
	commissionService *appreferral.CommissionService
	rosterService     *appreferral.RosterService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(
	codeService *appreferral.CodeService,
	commissionService *appreferral.CommissionService,
	rosterService *appreferral.RosterService,
) *ReferralHandler {
	return &ReferralHandler{
		codeService:       codeService,
		commissionService: commissionService,
		rosterService:     rosterService,
	}
}

// CreateReferralCodeRequest represents a request to issue a referral code
// @Description Request body for issuing a sales rep referral code
type CreateReferralCodeRequest struct {
	SalesRepID string `json:"sales_rep_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	RepName    string `json:"rep_name" binding:"required,min=1,max=200" example:"Jane Doe"`
}

// AssignReferralCodeRequest represents a request to assign a code to a referral
// @Description Request body for assigning an available code
type AssignReferralCodeRequest struct {
	ReferralID string `json:"referral_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
}

// SyncRosterRequest represents a roster sync submission
// @Description Request body for syncing a sales rep's code roster
type SyncRosterRequest struct {
	SalesRepID string   `json:"sales_rep_id" binding:"required,uuid"`
	Codes      []string `json:"codes" binding:"required"`
	Mode       string   `json:"mode" binding:"required" example:"upsert_only"`
}

// SyncRosterResponse represents the outcome of a roster sync
// @Description Roster sync counters
type SyncRosterResponse struct {
	Created int `json:"created" example:"2"`
	Updated int `json:"updated" example:"1"`
	Retired int `json:"retired" example:"0"`
}

// ReferralCodeResponse represents a referral code in API responses
// @Description Referral code with its audit history
type ReferralCodeResponse struct {
	ID         string                      `json:"id"`
	Value      string                      `json:"value" example:"JDABC"`
	Kind       string                      `json:"kind" example:"SALES_REP"`
	SalesRepID *string                     `json:"sales_rep_id,omitempty"`
	ReferralID *string                     `json:"referral_id,omitempty"`
	Status     string                      `json:"status" example:"available"`
	History    []ReferralCodeEventResponse `json:"history"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// ReferralCodeEventResponse represents one audit event on a code
// @Description Code lifecycle event
type ReferralCodeEventResponse struct {
	Action          string    `json:"action" example:"issued"`
	Actor           string    `json:"actor" example:"rep-77"`
	ResultingStatus string    `json:"resulting_status" example:"available"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// LedgerEntryResponse represents a commission ledger entry in API responses
// @Description Append-only commission ledger entry
type LedgerEntryResponse struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	SalesRepID      *string   `json:"sales_rep_id,omitempty"`
	OrderID         *string   `json:"order_id,omitempty"`
	Amount          float64   `json:"amount" example:"5.91"`
	Direction       string    `json:"direction" example:"CREDIT"`
	FirstOrderBonus bool      `json:"first_order_bonus"`
	Reason          string    `json:"reason"`
	EntryDate       time.Time `json:"entry_date"`
}

// CreateCode godoc
// @Summary      Issue a sales rep referral code
// @Tags         referral-codes
// @Accept       json
// @Produce      json
// @Param        request body CreateReferralCodeRequest true "Code issuance request"
// @Success      201 {object} dto.Response{data=ReferralCodeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /referral-codes [post]
func (h *ReferralHandler) CreateCode(c *gin.Context) {
	var req CreateReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	salesRepID, err := uuid.Parse(req.SalesRepID)
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	code, err := h.codeService.GenerateSalesRepCode(c.Request.Context(), salesRepID, req.RepName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toReferralCodeResponse(code))
}

// AssignCode godoc
// @Summary      Assign an available code to a referral
// @Tags         referral-codes
// @Accept       json
// @Produce      json
// @Param        code path string true "Code value"
// @Param        request body AssignReferralCodeRequest true "Assignment request"
// @Success      200 {object} dto.Response{data=ReferralCodeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /referral-codes/{code}/assign [post]
func (h *ReferralHandler) AssignCode(c *gin.Context) {
	var req AssignReferralCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	referralID, err := uuid.Parse(req.ReferralID)
	if err != nil {
		h.BadRequest(c, "Invalid referral ID format")
		return
	}

	code, err := h.codeService.Assign(c.Request.Context(), c.Param("code"), getActor(c), referralID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toReferralCodeResponse(code))
}

// RevokeCode godoc
// @Summary      Revoke an assigned code
// @Tags         referral-codes
// @Produce      json
// @Param        code path string true "Code value"
// @Success      200 {object} dto.Response{data=ReferralCodeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /referral-codes/{code}/revoke [post]
func (h *ReferralHandler) RevokeCode(c *gin.Context) {
	code, err := h.codeService.Revoke(c.Request.Context(), c.Param("code"), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReferralCodeResponse(code))
}

// RetireCode godoc
// @Summary      Retire a code
// @Tags         referral-codes
// @Produce      json
// @Param        code path string true "Code value"
// @Success      200 {object} dto.Response{data=ReferralCodeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /referral-codes/{code}/retire [post]
func (h *ReferralHandler) RetireCode(c *gin.Context) {
	code, err := h.codeService.Retire(c.Request.Context(), c.Param("code"), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReferralCodeResponse(code))
}

// ListCodesBySalesRep godoc
// @Summary      List a sales rep's referral codes
// @Tags         referral-codes
// @Produce      json
// @Param        id path string true "Sales rep ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]ReferralCodeResponse}
// @Router       /sales-reps/{id}/referral-codes [get]
func (h *ReferralHandler) ListCodesBySalesRep(c *gin.Context) {
	salesRepID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	codes, err := h.codeService.ListBySalesRep(c.Request.Context(), salesRepID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]ReferralCodeResponse, 0, len(codes))
	for _, code := range codes {
		resp = append(resp, toReferralCodeResponse(code))
	}
	h.Success(c, resp)
}

// SyncRoster godoc
// @Summary      Sync a sales rep's code roster
// @Description  Reconcile the submitted code list against stored codes using an explicit mode
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Param        request body SyncRosterRequest true "Roster sync request"
// @Success      200 {object} dto.Response{data=SyncRosterResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /referrals/sync [post]
func (h *ReferralHandler) SyncRoster(c *gin.Context) {
	var req SyncRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	salesRepID, err := uuid.Parse(req.SalesRepID)
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	result, err := h.rosterService.Sync(c.Request.Context(), salesRepID, req.Codes, appreferral.SyncMode(req.Mode), getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SyncRosterResponse{
		Created: result.Created,
		Updated: result.Updated,
		Retired: result.Retired,
	})
}

// DoctorLedger godoc
// @Summary      List a doctor's commission ledger
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Doctor ID" format(uuid)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]LedgerEntryResponse}
// @Router       /doctors/{id}/ledger [get]
func (h *ReferralHandler) DoctorLedger(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid doctor ID format")
		return
	}

	filter, ok := h.bindLedgerFilter(c)
	if !ok {
		return
	}

	entries, total, err := h.commissionService.LedgerForDoctor(c.Request.Context(), doctorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toLedgerEntryResponses(entries), total, filter.Page, filter.PageSize)
}

// SalesRepLedger godoc
// @Summary      List commissions attributed to a sales rep
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Sales rep ID" format(uuid)
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]LedgerEntryResponse}
// @Router       /sales-reps/{id}/ledger [get]
func (h *ReferralHandler) SalesRepLedger(c *gin.Context) {
	salesRepID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	filter, ok := h.bindLedgerFilter(c)
	if !ok {
		return
	}

	entries, total, err := h.commissionService.LedgerForSalesRep(c.Request.Context(), salesRepID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toLedgerEntryResponses(entries), total, filter.Page, filter.PageSize)
}

func (h *ReferralHandler) bindLedgerFilter(c *gin.Context) (shared.Filter, bool) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return shared.Filter{}, false
	}
	filter := shared.DefaultFilter()
	if list.Page > 0 {
		filter.Page = list.Page
	}
	if list.PageSize > 0 {
		filter.PageSize = list.PageSize
	}
	if list.OrderBy != "" {
		filter.OrderBy = list.OrderBy
	}
	if list.OrderDir != "" {
		filter.OrderDir = list.OrderDir
	}
	return filter, true
}

func toReferralCodeResponse(code *referral.Code) ReferralCodeResponse {
	resp := ReferralCodeResponse{
		ID:        code.ID.String(),
		Value:     code.Value,
		Kind:      string(code.Kind),
		Status:    code.Status.String(),
		CreatedAt: code.CreatedAt,
		UpdatedAt: code.UpdatedAt,
	}
	if code.SalesRepID != nil {
		repID := code.SalesRepID.String()
		resp.SalesRepID = &repID
	}
	if code.ReferralID != nil {
		referralID := code.ReferralID.String()
		resp.ReferralID = &referralID
	}
	for _, event := range code.History {
		resp.History = append(resp.History, ReferralCodeEventResponse{
			Action:          event.Action,
			Actor:           event.Actor,
			ResultingStatus: event.ResultingStatus.String(),
			OccurredAt:      event.OccurredAt,
		})
	}
	return resp
}

func toLedgerEntryResponses(entries []*referral.LedgerEntry) []LedgerEntryResponse {
	resp := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := LedgerEntryResponse{
			ID:              entry.ID.String(),
			DoctorID:        entry.DoctorID.String(),
			OrderID:         entry.OrderID,
			Amount:          entry.Amount.InexactFloat64(),
			Direction:       string(entry.Direction),
			FirstOrderBonus: entry.FirstOrderBonus,
			Reason:          entry.Reason,
			EntryDate:       entry.EntryDate,
		}
		if entry.SalesRepID != nil {
			repID := entry.SalesRepID.String()
			item.SalesRepID = &repID
		}
		resp = append(resp, item)
	}
	return resp
}
