package botauth

import "strings"

// CredentialRef identifies which stored credential a call should resolve:
// who is asking, for which provider, and optionally a specific credential or
// the bot it is attached to. It is the lookup key for CredentialStore.Get and
// the coalescing key for in-flight refreshes.
//
// Resolution order: an exact CredentialID wins; otherwise the most recently
// updated credential for owner+provider+bot when BotID is set; otherwise the
// most recently updated credential for owner+provider.
type CredentialRef struct {
	OwnerID      string
	Provider     string
	CredentialID string
	BotID        string
}

// Validate checks the ref identifies at least one resolvable target.
func (r CredentialRef) Validate() error {
	if r.Provider == "" {
		return NewError(ErrCodeInvalidRef, "provider is required")
	}
	if r.OwnerID == "" && r.CredentialID == "" {
		return NewError(ErrCodeInvalidRef, "owner id or credential id is required")
	}
	return nil
}

// WithCredentialID returns a copy of the ref pinned to a specific credential.
// The resolver uses this so refreshed payloads are written back to exactly
// the record that was read.
func (r CredentialRef) WithCredentialID(id string) CredentialRef {
	r.CredentialID = id
	return r
}

// Key returns a stable identity for the resolution target, safe for logging
// (it carries no token material) and used to coalesce concurrent refreshes.
func (r CredentialRef) Key() string {
	return strings.Join([]string{r.OwnerID, r.Provider, r.BotID, r.CredentialID}, "/")
}
