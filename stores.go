package botauth

import "context"

// CredentialStore is the persistence contract for credentials. Implementations
// must return errors tagged ErrCodeCredentialNotFound for missing records and
// ErrCodeCredentialWrite for failed writes, so callers can tell a missing
// authorization from a storage fault.
//
// The store is the only shared mutable state in this package. A write must be
// visible to any subsequent Get (read-after-write for a single resolution
// sequence); no caching of credentials across calls is assumed.
type CredentialStore interface {
	// Get resolves a credential. An exact CredentialID wins; otherwise the
	// most recently updated record for owner+provider(+bot).
	Get(ctx context.Context, ref CredentialRef) (*Credential, error)

	// Update fully replaces the payload of one credential. The ref must carry
	// a specific CredentialID: broad owner+provider rewrites are not allowed,
	// so a user holding several credentials for one provider never has them
	// all clobbered by a single refresh.
	Update(ctx context.Context, ref CredentialRef, payload map[string]any) error

	// Create persists a new credential at the end of an authorization
	// exchange. An empty ID is assigned by the store. Returns the stored
	// credential with identity and timestamps filled in.
	Create(ctx context.Context, cred *Credential) (*Credential, error)

	// Delete removes the credentials matching the ref, used when an owner
	// disconnects a provider.
	Delete(ctx context.Context, ref CredentialRef) error
}
