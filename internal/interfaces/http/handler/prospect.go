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

// ProspectHandler handles referral prospect and doctor registration endpoints
type ProspectHandler struct {
	BaseHandler
	prospectService *appreferral.ProspectService
}

// NewProspectHandler creates a new ProspectHandler
func NewProspectHandler(prospectService *appreferral.ProspectService) *ProspectHandler {
	return &ProspectHandler{
		prospectService: prospectService,
	}
}

// UpsertProspectRequest represents a prospect submission from a sales rep
// @Description Request body for creating or updating a referral prospect
type UpsertProspectRequest struct {
	SalesRepID   string `json:"sales_rep_id" binding:"required,uuid"`
	ContactName  string `json:"contact_name" binding:"required,min=1,max=200" example:"Dr. Quinn Reyes"`
	ContactEmail string `json:"contact_email" binding:"required,email" example:"quinn@example.com"`
	ContactPhone string `json:"contact_phone" example:"+1-512-555-0100"`
	Status       string `json:"status" example:"contacted"`
	Note         string `json:"note" binding:"max=2000"`
}

// RegisterDoctorRequest represents a doctor account registration
// @Description Request body for registering a doctor and issuing an account code
type RegisterDoctorRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200" example:"Dr. Quinn Reyes"`
	Email string `json:"email" binding:"required,email" example:"quinn@example.com"`
}

// ProspectResponse represents a prospect in API responses
// @Description Referral prospect
type ProspectResponse struct {
	ID                string    `json:"id"`
	ReferringDoctorID *string   `json:"referring_doctor_id,omitempty"`
	SalesRepID        string    `json:"sales_rep_id"`
	ContactName       string    `json:"contact_name"`
	ContactEmail      string    `json:"contact_email"`
	ContactPhone      string    `json:"contact_phone,omitempty"`
	Status            string    `json:"status" example:"pending"`
	Notes             string    `json:"notes,omitempty"`
	AttributionLocked bool      `json:"attribution_locked"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DoctorResponse represents a doctor account in API responses
// @Description Doctor account with referral code and credit balance
type DoctorResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ReferralCode  string    `json:"referral_code" example:"K7M2P9"`
	CreditBalance float64   `json:"credit_balance" example:"5.91"`
	ReferralCount int       `json:"referral_count" example:"1"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Upsert godoc
// @Summary      Create or update a referral prospect
// @Description  Prospects are keyed by contact email; locked attribution is never reassigned
// @Tags         prospects
// @Accept       json
// @Produce      json
// @Param        request body UpsertProspectRequest true "Prospect submission"
// @Success      200 {object} dto.Response{data=ProspectResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /prospects [post]
func (h *ProspectHandler) Upsert(c *gin.Context) {
	var req UpsertProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	salesRepID, err := uuid.Parse(req.SalesRepID)
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	prospect, err := h.prospectService.Upsert(c.Request.Context(), appreferral.UpsertProspectRequest{
		SalesRepID:   salesRepID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Status:       req.Status,
		Note:         req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toProspectResponse(prospect))
}

// ListBySalesRep godoc
// @Summary      List a sales rep's prospects
// @Tags         prospects
// @Produce      json
// @Param        id path string true "Sales rep ID" format(uuid)
// @Param        search query string false "Search by contact name or email"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]ProspectResponse}
// @Router       /sales-reps/{id}/prospects [get]
func (h *ProspectHandler) ListBySalesRep(c *gin.Context) {
	salesRepID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sales rep ID format")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := shared.DefaultFilter()
	if list.Page > 0 {
		filter.Page = list.Page
	}
	if list.PageSize > 0 {
		filter.PageSize = list.PageSize
	}
	filter.Search = list.Search

	prospects, total, err := h.prospectService.ListBySalesRep(c.Request.Context(), salesRepID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]ProspectResponse, 0, len(prospects))
	for _, prospect := range prospects {
		resp = append(resp, toProspectResponse(prospect))
	}
	h.SuccessWithMeta(c, resp, total, filter.Page, filter.PageSize)
}

// RegisterDoctor godoc
// @Summary      Register a doctor account
// @Description  Creates the doctor, issues an account referral code, and links any matching prospect
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Param        request body RegisterDoctorRequest true "Doctor registration"
// @Success      201 {object} dto.Response{data=DoctorResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /doctors [post]
func (h *ProspectHandler) RegisterDoctor(c *gin.Context) {
	var req RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doctor, err := h.prospectService.RegisterDoctor(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDoctorResponse(doctor))
}

func toProspectResponse(p *referral.Prospect) ProspectResponse {
	resp := ProspectResponse{
		ID:                p.ID.String(),
		SalesRepID:        p.SalesRepID.String(),
		ContactName:       p.ContactName,
		ContactEmail:      p.ContactEmail,
		ContactPhone:      p.ContactPhone,
		Status:            string(p.Status),
		Notes:             p.Notes,
		AttributionLocked: p.AttributionLocked,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.ReferringDoctorID != nil {
		doctorID := p.ReferringDoctorID.String()
		resp.ReferringDoctorID = &doctorID
	}
	return resp
}

func toDoctorResponse(d *referral.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:            d.ID.String(),
		Name:          d.Name,
		Email:         d.Email,
		ReferralCode:  d.ReferralCode,
		CreditBalance: d.CreditBalance.InexactFloat64(),
		ReferralCount: d.ReferralCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
