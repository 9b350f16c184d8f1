package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/peptiva/backend/internal/domain/order"
	"github.com/peptiva/backend/internal/domain/shipping"
)

// OrderModel is the persistence model for the Order aggregate root. The
// shipping address, selected estimate and vendor reference are flattened
// into columns so listings never need a join beyond the item lines.
type OrderModel struct {
	ID            string           `gorm:"type:varchar(64);primary_key"`
	Items         []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	ItemsSubtotal decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Currency      string           `gorm:"type:varchar(3);not null;default:'USD'"`
	Status        order.Status     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ReferralCode  string           `gorm:"type:varchar(50);index"`

	ShipStreet1    string `gorm:"type:varchar(200)"`
	ShipStreet2    string `gorm:"type:varchar(200)"`
	ShipCity       string `gorm:"type:varchar(100)"`
	ShipState      string `gorm:"type:varchar(50)"`
	ShipPostalCode string `gorm:"type:varchar(20)"`
	ShipCountry    string `gorm:"type:varchar(2)"`

	EstimateCarrierID    string          `gorm:"type:varchar(50)"`
	EstimateServiceCode  string          `gorm:"type:varchar(100)"`
	EstimateServiceType  string          `gorm:"type:varchar(200)"`
	EstimateRate         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EstimateCurrency     string          `gorm:"type:varchar(3)"`
	EstimateDeliveryDays int             `gorm:"not null;default:0"`
	EstimateFingerprint  string          `gorm:"type:varchar(64)"`

	VendorOrderID     int64  `gorm:"index"`
	VendorOrderNumber string `gorm:"type:varchar(50)"`
	VendorOrderKey    string `gorm:"type:varchar(100)"`
	VendorShippingID  string `gorm:"type:varchar(100)"`
	VendorInvoiceURL  string `gorm:"type:varchar(500)"`
	VendorDraftID     string `gorm:"type:varchar(100)"`

	CancelReason string    `gorm:"type:varchar(500)"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		ID:            m.ID,
		ItemsSubtotal: m.ItemsSubtotal,
		DiscountTotal: m.DiscountTotal,
		ShippingTotal: m.ShippingTotal,
		TaxTotal:      m.TaxTotal,
		GrandTotal:    m.GrandTotal,
		Currency:      m.Currency,
		Status:        m.Status,
		ReferralCode:  m.ReferralCode,
		ShippingAddress: shipping.Address{
			Street1:    m.ShipStreet1,
			Street2:    m.ShipStreet2,
			City:       m.ShipCity,
			State:      m.ShipState,
			PostalCode: m.ShipPostalCode,
			Country:    m.ShipCountry,
		},
		Vendor: order.VendorRef{
			OrderID:     m.VendorOrderID,
			OrderNumber: m.VendorOrderNumber,
			OrderKey:    m.VendorOrderKey,
			ShippingID:  m.VendorShippingID,
			InvoiceURL:  m.VendorInvoiceURL,
			DraftID:     m.VendorDraftID,
		},
		CancelReason: m.CancelReason,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		CompletedAt:  m.CompletedAt,
		CancelledAt:  m.CancelledAt,
		Items:        make([]order.Item, len(m.Items)),
	}
	// A zero carrier ID means no estimate was ever selected.
	if m.EstimateCarrierID != "" {
		o.ShippingEstimate = &shipping.Estimate{
			CarrierID:          m.EstimateCarrierID,
			ServiceCode:        m.EstimateServiceCode,
			ServiceType:        m.EstimateServiceType,
			Rate:               m.EstimateRate,
			Currency:           m.EstimateCurrency,
			DeliveryDays:       m.EstimateDeliveryDays,
			AddressFingerprint: m.EstimateFingerprint,
		}
	}
	for i, item := range m.Items {
		o.Items[i] = item.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.ID = o.ID
	m.ItemsSubtotal = o.ItemsSubtotal
	m.DiscountTotal = o.DiscountTotal
	m.ShippingTotal = o.ShippingTotal
	m.TaxTotal = o.TaxTotal
	m.GrandTotal = o.GrandTotal
	m.Currency = o.Currency
	m.Status = o.Status
	m.ReferralCode = o.ReferralCode
	m.ShipStreet1 = o.ShippingAddress.Street1
	m.ShipStreet2 = o.ShippingAddress.Street2
	m.ShipCity = o.ShippingAddress.City
	m.ShipState = o.ShippingAddress.State
	m.ShipPostalCode = o.ShippingAddress.PostalCode
	m.ShipCountry = o.ShippingAddress.Country
	if est := o.ShippingEstimate; est != nil {
		m.EstimateCarrierID = est.CarrierID
		m.EstimateServiceCode = est.ServiceCode
		m.EstimateServiceType = est.ServiceType
		m.EstimateRate = est.Rate
		m.EstimateCurrency = est.Currency
		m.EstimateDeliveryDays = est.DeliveryDays
		m.EstimateFingerprint = est.AddressFingerprint
	}
	m.VendorOrderID = o.Vendor.OrderID
	m.VendorOrderNumber = o.Vendor.OrderNumber
	m.VendorOrderKey = o.Vendor.OrderKey
	m.VendorShippingID = o.Vendor.ShippingID
	m.VendorInvoiceURL = o.Vendor.InvoiceURL
	m.VendorDraftID = o.Vendor.DraftID
	m.CancelReason = o.CancelReason
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(o.ID, item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for a single order line.
type OrderItemModel struct {
	ID          uint            `gorm:"primary_key;autoIncrement"`
	OrderID     string          `gorm:"type:varchar(64);not null;index"`
	ProductID   string          `gorm:"type:varchar(64);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain order Item.
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain order Item.
func OrderItemModelFromDomain(orderID string, item order.Item) OrderItemModel {
	return OrderItemModel{
		OrderID:     orderID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		LineTotal:   item.LineTotal,
	}
}
