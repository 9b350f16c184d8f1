package ecommerce

import (
	"errors"
	"net/url"
	"strings"
)

// WooConfig holds configuration for the WooCommerce REST API integration
type WooConfig struct {
	// BaseURL is the store's root URL (e.g. https://shop.example.com)
	BaseURL string
	// ConsumerKey is the REST API consumer key (ck_...)
	ConsumerKey string
	// ConsumerSecret is the REST API consumer secret (cs_...)
	ConsumerSecret string
	// AutoSubmit controls whether orders are pushed immediately on checkout.
	// When false, forwarding returns a pending result for operator review.
	AutoSubmit bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// MaxAttempts is the total attempt count for retryable failures
	MaxAttempts int
}

// wooAPIPrefix is the WooCommerce REST API v3 path prefix
const wooAPIPrefix = "/wp-json/wc/v3"

// Errors for WooCommerce configuration
var (
	ErrWooConfigMissingBaseURL = errors.New("woocommerce: base URL is required")
	ErrWooConfigInvalidBaseURL = errors.New("woocommerce: base URL must be absolute")
	ErrWooConfigMissingKey     = errors.New("woocommerce: consumer key is required")
	ErrWooConfigMissingSecret  = errors.New("woocommerce: consumer secret is required")
)

// NewWooConfig creates a new WooCommerce configuration with defaults
func NewWooConfig(baseURL, consumerKey, consumerSecret string) *WooConfig {
	return &WooConfig{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		AutoSubmit:     true,
		TimeoutSeconds: 30,
		MaxAttempts:    3,
	}
}

// IsConfigured reports whether the config carries enough to talk to a store.
// An unconfigured integration is not an error, forwarding degrades instead.
func (c *WooConfig) IsConfigured() bool {
	return c != nil && c.BaseURL != "" && c.ConsumerKey != "" && c.ConsumerSecret != ""
}

// Validate validates the WooCommerce configuration
func (c *WooConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrWooConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrWooConfigInvalidBaseURL
	}
	if c.ConsumerKey == "" {
		return ErrWooConfigMissingKey
	}
	if c.ConsumerSecret == "" {
		return ErrWooConfigMissingSecret
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return nil
}

// APIURL builds the full REST API URL for the given resource path
func (c *WooConfig) APIURL(path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + wooAPIPrefix + path
}

// InvoiceURL builds the customer payment link for a forwarded order
func (c *WooConfig) InvoiceURL(orderID int64, orderKey string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	u := url.Values{}
	u.Set("pay_for_order", "true")
	u.Set("key", orderKey)
	return base + "/checkout/order-pay/" + int64String(orderID) + "/?" + u.Encode()
}
