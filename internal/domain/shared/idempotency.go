package shared

import (
	"context"
	"time"
)

// CheckoutRecord captures the outcome of a completed checkout keyed by the
// client-supplied idempotency key. The fingerprint distinguishes a true
// retransmission from a different order reusing the same key.
type CheckoutRecord struct {
	IdempotencyKey string    `json:"idempotency_key"`
	Fingerprint    string    `json:"fingerprint"`
	OrderID        string    `json:"order_id"`
	Result         []byte    `json:"result"`
	CreatedAt      time.Time `json:"created_at"`
}

// CheckoutRecordStore stores checkout results so a retransmitted request can
// be answered with the original response instead of creating a second order.
type CheckoutRecordStore interface {
	// Put stores a record with a TTL. An existing record under the same key
	// is overwritten.
	Put(ctx context.Context, record CheckoutRecord, ttl time.Duration) error

	// Get returns the record for a key, or found=false if absent or expired.
	Get(ctx context.Context, idempotencyKey string) (CheckoutRecord, bool, error)

	// Delete removes the record for a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, idempotencyKey string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for checkout idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for checkout records. After this duration the
	// same idempotency key is treated as a fresh request.
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
