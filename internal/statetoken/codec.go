package statetoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// MaxAge is how long an encoded state token stays valid.
const MaxAge = 15 * time.Minute

// Codec signs and verifies the opaque state value round-tripped through the
// OAuth provider's redirect. Token format:
//
//	base64url(JSON{requester_id, correlation_id, issued_at}) "." base64url(HMAC-SHA256)
//
// The HMAC is computed over the encoded payload, not the raw JSON.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// New creates a codec using the given signing secret.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Encode serializes and signs a payload. IssuedAt is stamped here; any value
// already present on the payload is overwritten.
func (c *Codec) Encode(requesterID, correlationID string) (string, error) {
	payload := domain.StatePayload{
		RequesterID:   requesterID,
		CorrelationID: correlationID,
		IssuedAt:      c.now().UnixMilli(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies and unpacks a token. It returns nil for anything malformed,
// tampered with, incomplete, or older than MaxAge - never an error the caller
// could mistake for an internal failure. A nil result means "reject the
// callback."
func (c *Codec) Decode(token string) *domain.StatePayload {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil
	}

	if !hmac.Equal([]byte(c.sign(parts[0])), []byte(parts[1])) {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}

	var payload domain.StatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	if payload.RequesterID == "" || payload.CorrelationID == "" {
		return nil
	}

	issued := time.UnixMilli(payload.IssuedAt)
	if c.now().Sub(issued) > MaxAge {
		return nil
	}

	return &payload
}

func (c *Codec) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
