package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peptiva/backend/internal/application/checkout"
	"github.com/peptiva/backend/internal/domain/commerce"
	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shipping"
	"github.com/peptiva/backend/internal/interfaces/http/dto"
)

// CheckoutHandler handles checkout and order API endpoints
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkout.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// CheckoutItemInput represents one order line in a checkout request
// @Description Order line for checkout
type CheckoutItemInput struct {
	ProductID   string  `json:"product_id" binding:"required" example:"101"`
	ProductName string  `json:"product_name" binding:"required,min=1,max=200" example:"BPC-157 5mg"`
	Quantity    int     `json:"quantity" binding:"required,gt=0" example:"2"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0" example:"40.00"`
}

// CheckoutAddressInput represents a shipping address in a checkout request
// @Description Shipping destination for checkout
type CheckoutAddressInput struct {
	Street1    string `json:"street1" binding:"required" example:"600 Congress Ave"`
	Street2    string `json:"street2" example:""`
	City       string `json:"city" binding:"required" example:"Austin"`
	State      string `json:"state" binding:"required" example:"TX"`
	PostalCode string `json:"postal_code" binding:"required" example:"78701"`
	Country    string `json:"country" example:"US"`
}

// CheckoutEstimateInput represents the previously quoted shipping rate
// @Description Shipping rate quote to validate against the address
type CheckoutEstimateInput struct {
	CarrierID          string  `json:"carrier_id" example:"fedex"`
	ServiceCode        string  `json:"service_code" example:"fedex_ground"`
	ServiceType        string  `json:"service_type" example:"ground"`
	Rate               float64 `json:"rate" binding:"required,gt=0" example:"10.00"`
	Currency           string  `json:"currency" example:"USD"`
	DeliveryDays       int     `json:"delivery_days" example:"5"`
	AddressFingerprint string  `json:"address_fingerprint" binding:"required"`
}

// CheckoutCustomerInput represents the purchaser's contact details
// @Description Purchaser contact details forwarded to the commerce platform
type CheckoutCustomerInput struct {
	Email     string `json:"email" binding:"required,email" example:"buyer@example.com"`
	FirstName string `json:"first_name" example:"Sam"`
	LastName  string `json:"last_name" example:"Buyer"`
	Phone     string `json:"phone" example:""`
}

// CheckoutRequest represents a request to run a checkout
// @Description Request body for submitting an order through the pipeline
type CheckoutRequest struct {
	OrderID       string                `json:"order_id" example:"ord-20260829-001"`
	Items         []CheckoutItemInput   `json:"items" binding:"required,min=1,dive"`
	DiscountTotal float64               `json:"discount_total" binding:"omitempty,gte=0" example:"0"`
	ShippingTotal float64               `json:"shipping_total" binding:"gte=0" example:"10.00"`
	TaxTotal      float64               `json:"tax_total" binding:"gte=0" example:"8.25"`
	GrandTotal    float64               `json:"grand_total" binding:"required,gt=0" example:"118.25"`
	Currency      string                `json:"currency" example:"USD"`
	ReferralCode  string                `json:"referral_code" example:"DRSMIT"`
	PurchaserID   *string               `json:"purchaser_id" binding:"omitempty,uuid"`
	Customer      CheckoutCustomerInput `json:"customer" binding:"required"`
	Address       CheckoutAddressInput  `json:"address" binding:"required"`
	Estimate      CheckoutEstimateInput `json:"estimate" binding:"required"`
}

// CancelOrderRequest represents a request to cancel an order
// @Description Request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"payment failed"`
}

// StageResultResponse represents one pipeline stage outcome
// @Description Per-stage outcome of a checkout run
type StageResultResponse struct {
	Stage  string `json:"stage" example:"tax_calculated"`
	Status string `json:"status" example:"completed"`
	Detail string `json:"detail,omitempty" example:""`
}

// CheckoutResponse represents the outcome of a checkout run
// @Description Checkout pipeline result
type CheckoutResponse struct {
	OrderID    string                `json:"order_id" example:"ord-20260829-001"`
	Status     string                `json:"status" example:"pending"`
	Stage      string                `json:"stage" example:"acknowledged"`
	Stages     []StageResultResponse `json:"stages"`
	TaxTotal   float64               `json:"tax_total" example:"8.25"`
	GrandTotal float64               `json:"grand_total" example:"118.25"`
	Currency   string                `json:"currency" example:"USD"`
	Vendor     *VendorRefResponse    `json:"vendor,omitempty"`
	Commission *CommissionResponse   `json:"commission,omitempty"`
	Replayed   bool                  `json:"replayed" example:"false"`
}

// VendorRefResponse represents vendor identifiers attached to an order
// @Description Commerce platform identifiers for a forwarded order
type VendorRefResponse struct {
	OrderID     int64  `json:"order_id,omitempty" example:"9001"`
	OrderNumber string `json:"order_number,omitempty" example:"9001"`
	OrderKey    string `json:"order_key,omitempty" example:"wc_order_abc"`
	InvoiceURL  string `json:"invoice_url,omitempty"`
	DraftID     string `json:"draft_id,omitempty"`
}

// CommissionResponse represents an applied referral commission
// @Description Referral commission credited during checkout
type CommissionResponse struct {
	DoctorID        string  `json:"doctor_id"`
	SalesRepID      *string `json:"sales_rep_id,omitempty"`
	Amount          float64 `json:"amount" example:"5.91"`
	FirstOrderBonus bool    `json:"first_order_bonus" example:"true"`
}

// OrderResponse represents a persisted order in API responses
// @Description Order record
type OrderResponse struct {
	ID            string              `json:"id"`
	Items         []OrderItemResponse `json:"items"`
	ItemsSubtotal float64             `json:"items_subtotal"`
	DiscountTotal float64             `json:"discount_total"`
	ShippingTotal float64             `json:"shipping_total"`
	TaxTotal      float64             `json:"tax_total"`
	GrandTotal    float64             `json:"grand_total"`
	Currency      string              `json:"currency"`
	Status        string              `json:"status"`
	ReferralCode  string              `json:"referral_code,omitempty"`
	Vendor        *VendorRefResponse  `json:"vendor,omitempty"`
	CancelReason  string              `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
}

// OrderItemResponse represents an order line in API responses
// @Description Order line
type OrderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// CancelOutcomeResponse represents the outcome of an order cancellation
// @Description Cancellation result including the upstream compensation
type CancelOutcomeResponse struct {
	OrderID      string `json:"order_id"`
	Status       string `json:"status" example:"cancelled"`
	VendorStatus string `json:"vendor_status,omitempty" example:"forwarded"`
	VendorReason string `json:"vendor_reason,omitempty"`
}

// Checkout godoc
// @Summary      Run a checkout
// @Description  Validate, price, forward, persist and attribute one order
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Retransmission guard key"
// @Param        request body CheckoutRequest true "Checkout request"
// @Success      201 {object} dto.Response{data=CheckoutResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := toCheckoutRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	appReq.IdempotencyKey = c.GetHeader("Idempotency-Key")

	result, err := h.checkoutService.Checkout(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := toCheckoutResponse(result)
	if result.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// GetOrder godoc
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	o, err := h.checkoutService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// ListOrders godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        referral_code query string false "Filter by referral code"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]OrderResponse}
// @Router       /orders [get]
func (h *CheckoutHandler) ListOrders(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if list.Page == 0 {
		list.Page = 1
	}
	if list.PageSize == 0 {
		list.PageSize = 20
	}

	filter := order.Filter{
		ReferralCode: c.Query("referral_code"),
		Page:         list.Page,
		PageSize:     list.PageSize,
	}
	if raw := c.Query("status"); raw != "" {
		status := order.Status(raw)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid order status")
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.checkoutService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	h.SuccessWithMeta(c, resp, total, filter.Page, filter.PageSize)
}

// CancelOrder godoc
// @Summary      Cancel an order
// @Description  Cancel the vendor order upstream and transition the local record
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=CancelOutcomeResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *CheckoutHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.checkoutService.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := CancelOutcomeResponse{
		OrderID: outcome.OrderID,
		Status:  outcome.Status.String(),
	}
	if outcome.VendorCancel != nil {
		resp.VendorStatus = string(outcome.VendorCancel.Status)
		resp.VendorReason = outcome.VendorCancel.Reason
	}
	h.Success(c, resp)
}

func toCheckoutRequest(req CheckoutRequest) (checkout.Request, error) {
	appReq := checkout.Request{
		OrderID:       req.OrderID,
		DiscountTotal: toDecimal(req.DiscountTotal),
		ShippingTotal: toDecimal(req.ShippingTotal),
		TaxTotal:      toDecimal(req.TaxTotal),
		GrandTotal:    toDecimal(req.GrandTotal),
		Currency:      req.Currency,
		ReferralCode:  req.ReferralCode,
		Customer: commerce.Customer{
			Email:     req.Customer.Email,
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Phone:     req.Customer.Phone,
		},
		Address: shipping.Address{
			Street1:    req.Address.Street1,
			Street2:    req.Address.Street2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		Estimate: shipping.Estimate{
			CarrierID:          req.Estimate.CarrierID,
			ServiceCode:        req.Estimate.ServiceCode,
			ServiceType:        req.Estimate.ServiceType,
			Rate:               toDecimal(req.Estimate.Rate),
			Currency:           req.Estimate.Currency,
			DeliveryDays:       req.Estimate.DeliveryDays,
			AddressFingerprint: req.Estimate.AddressFingerprint,
		},
	}

	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, checkout.ItemRequest{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   toDecimal(item.UnitPrice),
		})
	}

	if req.PurchaserID != nil && *req.PurchaserID != "" {
		purchaserID, err := uuid.Parse(*req.PurchaserID)
		if err != nil {
			return checkout.Request{}, err
		}
		appReq.PurchaserID = &purchaserID
	}

	return appReq, nil
}

func toCheckoutResponse(result *checkout.Result) CheckoutResponse {
	resp := CheckoutResponse{
		OrderID:    result.OrderID,
		Status:     result.Status.String(),
		Stage:      string(result.Stage),
		TaxTotal:   result.TaxTotal.InexactFloat64(),
		GrandTotal: result.GrandTotal.InexactFloat64(),
		Currency:   result.Currency,
		Replayed:   result.Replayed,
	}
	for _, stage := range result.Stages {
		resp.Stages = append(resp.Stages, StageResultResponse{
			Stage:  string(stage.Stage),
			Status: string(stage.Status),
			Detail: stage.Detail,
		})
	}
	if result.Forward != nil {
		resp.Vendor = &VendorRefResponse{
			OrderID:     result.Forward.VendorOrderID,
			OrderNumber: result.Forward.OrderNumber,
			OrderKey:    result.Forward.OrderKey,
			InvoiceURL:  result.Forward.InvoiceURL,
			DraftID:     result.Forward.DraftID,
		}
	}
	if result.Commission != nil {
		commission := &CommissionResponse{
			DoctorID:        result.Commission.DoctorID.String(),
			Amount:          result.Commission.Amount.InexactFloat64(),
			FirstOrderBonus: result.Commission.FirstOrderBonus,
		}
		if result.Commission.SalesRepID != nil {
			repID := result.Commission.SalesRepID.String()
			commission.SalesRepID = &repID
		}
		resp.Commission = commission
	}
	return resp
}

func toOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		ItemsSubtotal: o.ItemsSubtotal.InexactFloat64(),
		DiscountTotal: o.DiscountTotal.InexactFloat64(),
		ShippingTotal: o.ShippingTotal.InexactFloat64(),
		TaxTotal:      o.TaxTotal.InexactFloat64(),
		GrandTotal:    o.GrandTotal.InexactFloat64(),
		Currency:      o.Currency,
		Status:        o.Status.String(),
		ReferralCode:  o.ReferralCode,
		CancelReason:  o.CancelReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
			LineTotal:   item.LineTotal.InexactFloat64(),
		})
	}
	if o.Vendor != (order.VendorRef{}) {
		resp.Vendor = &VendorRefResponse{
			OrderID:     o.Vendor.OrderID,
			OrderNumber: o.Vendor.OrderNumber,
			OrderKey:    o.Vendor.OrderKey,
			InvoiceURL:  o.Vendor.InvoiceURL,
			DraftID:     o.Vendor.DraftID,
		}
	}
	return resp
}
