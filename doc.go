// Package botauth manages OAuth credentials for a bot platform's outbound
// calls to third-party providers (calendar, CRM, messaging). It keeps stored
// access/refresh tokens valid transparently, so callers never re-authenticate
// a user just to make an API call.
//
// # Architecture
//
// Credential: the persisted access/refresh token bundle for one owner and
// provider, optionally scoped to a bot. Payloads are opaque, provider-defined
// maps; the core only interprets the access token, refresh token, expiry and
// scope fields.
//
// CredentialRef: the lookup key for one resolution — owner, provider, and an
// optional credential ID or bot ID to disambiguate.
//
// Provider: one external platform's token semantics. Each provider knows how
// to exchange a refresh token and how to build an authorized client; nothing
// else in the core special-cases provider names.
//
// Registry: name to provider lookup with lazy, compute-once loading so a
// provider's SDK is only pulled in when first resolved.
//
// Resolver: composes a CredentialStore, the validity checks, and a Provider
// to produce an always-valid credential, persisting refreshed tokens back.
// Concurrent resolutions of the same credential coalesce into one refresh.
//
// Service: the client factory callers use. It hands back provider clients,
// narrowed sub-service clients (e.g. a calendar-only facade), or the bare
// access token.
//
// # Basic Usage
//
// Wire a store and the built-in providers, then ask for clients:
//
//	import (
//	    "github.com/relaybot/botauth"
//	    "github.com/relaybot/botauth/providers"
//	    "github.com/relaybot/botauth/stores"
//	)
//
//	store := stores.NewFSCredentialStore("/var/lib/botauth")
//	registry := botauth.NewRegistry()
//	providers.RegisterDefaults(registry)
//
//	svc := botauth.NewService(store, registry)
//	client, err := svc.CreateServiceClient(ctx, botauth.CredentialRef{
//	    OwnerID:  userID,
//	    Provider: "google",
//	}, "calendar")
//
// Store backends are provided for the filesystem (stores), SQL databases via
// GORM (stores/gorm) and Google Cloud Datastore (stores/gae). Applications
// can substitute their own CredentialStore implementation.
package botauth
