// Package model defines domain entities shared by resolvers and repositories.
package model

import "time"

// Client is a marketplace customer account.
type Client struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"` // unique
	Email        string    `json:"email"`    // unique
	PasswordHash string    `json:"-"`        // argon2id digest, never plaintext
	CreatedAt    time.Time `json:"createdAt"`
}

// Provider is a marketplace service provider account with an optional
// geocoded postal address and a free-form attributes payload.
type Provider struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"` // unique
	Email        string `json:"email"`    // unique
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Street       string `json:"street"`
	Zipcode      string `json:"zipcode"`

	// Latitude/Longitude stay nil until an address has been geocoded.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Attributes holds declared provider attributes (stored as jsonb).
	Attributes map[string]any `json:"attributes,omitempty"`

	Reviews   []Review  `json:"reviews,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review is a sub-record attached to a Provider.
type Review struct {
	ID         int64     `json:"id"`
	ProviderID int64     `json:"providerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Actor is implemented by account entities so the identity resolver can be
// written once for both kinds.
type Actor interface {
	ActorID() int64
	Secret() string // stored password hash
}

func (c *Client) ActorID() int64 { return c.ID }
func (c *Client) Secret() string { return c.PasswordHash }

func (p *Provider) ActorID() int64 { return p.ID }
func (p *Provider) Secret() string { return p.PasswordHash }

// FieldError is a user-displayable error tagged with the input field it
// pertains to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Credentials is the common registration input for both actor kinds.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Address is the optional provider postal address used for geocoding.
type Address struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

// ClientResult is the envelope returned by client identity operations:
// either Client or Errors is populated, never both.
type ClientResult struct {
	Client *Client      `json:"client,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// ProviderResult is the envelope returned by provider identity operations.
type ProviderResult struct {
	Provider *Provider    `json:"provider,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// ProvidersResult is the envelope returned by the directory search.
type ProvidersResult struct {
	Providers []*Provider  `json:"providers,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}
