package models

import "time"

// OAuth transaction statuses. Transitions are driven by the provider
// callback and by reads past the expiry; the client polls until a
// terminal status.
const (
	OAuthPending   = "pending"
	OAuthCompleted = "completed"
	OAuthFailed    = "failed"
	OAuthExpired   = "expired"
)

// OAuthTransaction is a short-lived record tracking an in-flight OAuth
// authorization for a server install
type OAuthTransaction struct {
	Id               string
	ServerNamespace  string
	UserId           string
	Status           string
	AuthorizationURL string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Terminal reports whether the transaction has reached a final status.
func (t *OAuthTransaction) Terminal() bool {
	return t.Status == OAuthCompleted || t.Status == OAuthFailed || t.Status == OAuthExpired
}

// OAuthTransactionResponse represents the polling response for an OAuth transaction
type OAuthTransactionResponse struct {
	Id               string    `json:"id"`
	Status           string    `json:"status"`
	AuthorizationURL string    `json:"authorization_url,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// ToResponse converts an OAuthTransaction to its polling DTO
func (t *OAuthTransaction) ToResponse() OAuthTransactionResponse {
	resp := OAuthTransactionResponse{
		Id:        t.Id,
		Status:    t.Status,
		ExpiresAt: t.ExpiresAt,
	}
	if t.Status == OAuthPending {
		resp.AuthorizationURL = t.AuthorizationURL
	}
	return resp
}
