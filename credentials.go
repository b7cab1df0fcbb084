package botauth

import (
	"time"
)

// RefreshThreshold is how long before expiry to proactively refresh a token,
// so a token is never caught expired mid-call.
const RefreshThreshold = 5 * time.Minute

// Payload keys the core interprets. Providers may store additional fields
// (e.g. "location_id" for tenant-scoped providers) which the core carries
// through untouched.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresAt    = "expires_at"
	KeyScope        = "scope"
)

// Credential is the persisted authentication record for one (owner, provider)
// pair, optionally scoped to a bot. The payload is an opaque, provider-defined
// map holding at minimum an access token once persisted.
type Credential struct {
	ID       string         `json:"id"`
	OwnerID  string         `json:"owner_id"`
	Provider string         `json:"provider"`
	BotID    string         `json:"bot_id,omitempty"`
	Payload  map[string]any `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccessToken returns the stored access token, or "" if none.
func (c *Credential) AccessToken() string {
	return c.payloadString(KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" if the provider never
// issued one.
func (c *Credential) RefreshToken() string {
	return c.payloadString(KeyRefreshToken)
}

// Scope returns the granted scope string, or "".
func (c *Credential) Scope() string {
	return c.payloadString(KeyScope)
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken() != ""
}

// ExpiresAt returns the absolute expiry instant of the access token. The zero
// time means the token does not expire. Payloads round-trip through JSON
// stores, so the value may arrive as a time.Time, an RFC 3339 string, or a
// numeric unix-seconds timestamp.
func (c *Credential) ExpiresAt() time.Time {
	v, ok := c.Payload[KeyExpiresAt]
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	case float64:
		return time.Unix(int64(t), 0)
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	}
	return time.Time{}
}

// IsExpired returns true if the access token has expired as of now. Tokens
// without a recorded expiry never expire.
func (c *Credential) IsExpired(now time.Time) bool {
	expiry := c.ExpiresAt()
	if expiry.IsZero() {
		return false
	}
	return !now.Before(expiry)
}

// NeedsRefresh returns true if the access token expires within the buffer as
// of now. Tokens without a recorded expiry never need a refresh.
func (c *Credential) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	expiry := c.ExpiresAt()
	if expiry.IsZero() {
		return false
	}
	return !now.Add(buffer).Before(expiry)
}

// ApplyGrant merges a refresh grant over the payload: fields the grant carries
// win, fields it omits survive from the existing payload. In particular a
// provider that omits a new refresh token does not lose the old one. Returns
// the updated payload (also set on the credential).
func (c *Credential) ApplyGrant(grant *TokenGrant, now time.Time) map[string]any {
	if c.Payload == nil {
		c.Payload = make(map[string]any)
	}
	c.Payload[KeyAccessToken] = grant.AccessToken
	if grant.RefreshToken != "" {
		c.Payload[KeyRefreshToken] = grant.RefreshToken
	}
	if grant.ExpiresIn > 0 {
		c.Payload[KeyExpiresAt] = now.Add(time.Duration(grant.ExpiresIn) * time.Second).Format(time.RFC3339)
	}
	if grant.Scope != "" {
		c.Payload[KeyScope] = grant.Scope
	}
	for k, v := range grant.Extra {
		c.Payload[k] = v
	}
	return c.Payload
}

// PayloadString returns a string-valued extension field from the payload,
// or "" if absent or not a string.
func (c *Credential) PayloadString(key string) string {
	return c.payloadString(key)
}

func (c *Credential) payloadString(key string) string {
	if c.Payload == nil {
		return ""
	}
	s, _ := c.Payload[key].(string)
	return s
}
