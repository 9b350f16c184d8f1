package shipping

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultCountry is applied when an address omits its country.
const DefaultCountry = "US"

// Address represents a shipping destination as submitted by a client.
type Address struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Normalize trims every field and defaults the country. Fingerprints are
// always computed over the normalized form, so callers can pass raw input.
func Normalize(raw Address) Address {
	addr := Address{
		Street1:    strings.TrimSpace(raw.Street1),
		Street2:    strings.TrimSpace(raw.Street2),
		City:       strings.TrimSpace(raw.City),
		State:      strings.TrimSpace(raw.State),
		PostalCode: strings.TrimSpace(raw.PostalCode),
		Country:    strings.TrimSpace(raw.Country),
	}
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}
	return addr
}

// Fingerprint returns a stable one-way hash of the normalized address.
// Any field change produces a different fingerprint.
func Fingerprint(addr Address) string {
	n := Normalize(addr)
	joined := strings.ToUpper(strings.Join([]string{
		n.Street1,
		n.Street2,
		n.City,
		n.State,
		n.PostalCode,
		n.Country,
	}, "|"))
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// IsComplete reports whether the address carries every field required to
// quote and ship: street, city, state, postal code, country.
func (a Address) IsComplete() bool {
	n := Normalize(a)
	return n.Street1 != "" && n.City != "" && n.State != "" && n.PostalCode != "" && n.Country != ""
}

// IsEmpty returns true if every field is blank.
func (a Address) IsEmpty() bool {
	return a.Street1 == "" && a.Street2 == "" && a.City == "" &&
		a.State == "" && a.PostalCode == "" && a.Country == ""
}
