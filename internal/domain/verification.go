package domain

import "time"

// Pending authorization lifecycle states.
const (
	AuthStatusPending   = "pending"
	AuthStatusCompleted = "completed"
	AuthStatusConsumed  = "consumed"
	AuthStatusFailed    = "failed"
	AuthStatusExpired   = "expired"
)

// StatePayload is the signed payload round-tripped through the provider's
// redirect. It carries who started the flow and which command invocation the
// eventual callback belongs to.
type StatePayload struct {
	RequesterID   string `json:"requester_id"`
	CorrelationID string `json:"correlation_id"`
	IssuedAt      int64  `json:"issued_at"`
}

// LinkedAccount is one external-account connection reported by the provider,
// filtered to the connection type the flow cares about (YouTube channels).
type LinkedAccount struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
}

// IdentitySnapshot captures the requester's provider identity at
// verification time.
type IdentitySnapshot struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
}

// PendingAuthorization is the durable handoff between the OAuth callback and
// the waiting command interaction, keyed by correlation id.
type PendingAuthorization struct {
	CorrelationID  string            `json:"correlation_id"`
	AccessToken    string            `json:"-"`
	LinkedAccounts []LinkedAccount   `json:"linked_accounts"`
	Identity       *IdentitySnapshot `json:"identity,omitempty"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}
