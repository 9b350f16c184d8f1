package order

import (
	"context"
)

// Repository persists authoritative order records. Upsert is keyed by the
// internal order ID and must be safe to replay.
type Repository interface {
	Upsert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByVendorOrderID(ctx context.Context, vendorOrderID int64) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, int64, error)
}

// Filter narrows order listings.
type Filter struct {
	Status       *Status
	ReferralCode string
	Page         int
	PageSize     int
}
