package botauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Resolver produces always-valid credentials: it reads from the store,
// refreshes through the provider when the token is near expiry, persists the
// merged result, and returns the in-memory credential so callers never need a
// second store read.
//
// Every refresh happens synchronously within the calling request; there is no
// background sweep. Concurrent resolutions of the same ref coalesce into a
// single store-read/refresh/store-write sequence, so a credential is never
// double-refreshed.
type Resolver struct {
	store    CredentialStore
	registry *Registry
	buffer   time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	group    singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRefreshBuffer overrides the proactive-refresh grace window.
func WithRefreshBuffer(buffer time.Duration) ResolverOption {
	return func(r *Resolver) { r.buffer = buffer }
}

// WithClock substitutes the clock, for tests that exercise expiry math.
func WithClock(clock clockwork.Clock) ResolverOption {
	return func(r *Resolver) { r.clock = clock }
}

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver over a store and provider registry.
func NewResolver(store CredentialStore, registry *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		registry: registry,
		buffer:   RefreshThreshold,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a valid credential for the ref, refreshing and persisting
// first if the stored token is near expiry.
//
// A missing credential propagates as CREDENTIAL_NOT_FOUND. A failed refresh
// exchange is fatal for this call and carries the provider's refresh error
// code; the stale token is not returned since it may already be rejected by
// the provider. If the refresh succeeds but the write back fails, Resolve
// returns the merged credential together with a CREDENTIAL_WRITE_ERROR: the
// token is usable for the current call, but the error must surface since
// every later call will refresh again.
//
// Retry policy belongs to the caller; Resolve never retries internally.
func (r *Resolver) Resolve(ctx context.Context, ref CredentialRef) (*Credential, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	type result struct {
		cred *Credential
		err  error
	}

	v, _, _ := r.group.Do(ref.Key(), func() (any, error) {
		cred, err := r.resolve(ctx, ref)
		return result{cred: cred, err: err}, nil
	})

	res := v.(result)
	return res.cred, res.err
}

func (r *Resolver) resolve(ctx context.Context, ref CredentialRef) (*Credential, error) {
	cred, err := r.store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	if !cred.HasRefreshToken() || !cred.NeedsRefresh(now, r.buffer) {
		return cred, nil
	}

	provider, err := r.registry.Resolve(ref.Provider)
	if err != nil {
		return nil, err
	}

	grant, err := provider.RefreshToken(ctx, cred.RefreshToken())
	if err != nil {
		r.logger.Warn("token refresh failed",
			"provider", ref.Provider,
			"credential", ref.WithCredentialID(cred.ID).Key(),
			"error", err)
		return nil, err
	}

	payload := cred.ApplyGrant(grant, now)
	cred.UpdatedAt = now

	// Write back to exactly the record that was read, even when the ref
	// resolved by owner+provider.
	writeRef := ref.WithCredentialID(cred.ID)
	if err := r.store.Update(ctx, writeRef, payload); err != nil {
		r.logger.Error("refreshed credential could not be persisted; next call will refresh again",
			"provider", ref.Provider,
			"credential", writeRef.Key(),
			"error", err)
		if !HasCode(err, ErrCodeCredentialWrite) {
			err = WrapError(ErrCodeCredentialWrite, "failed to persist refreshed credential", err)
		}
		return cred, err
	}

	r.logger.Info("credential refreshed",
		"provider", ref.Provider,
		"credential", writeRef.Key(),
		"expires_at", cred.ExpiresAt())
	return cred, nil
}
