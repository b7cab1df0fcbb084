package providers

import (
	"github.com/relaybot/botauth"
)

// RegisterDefaults populates a registry with the built-in providers. Each is
// registered lazily, so a deployment that never touches the CRM never builds
// its provider. Call once at process bootstrap:
//
//	registry := botauth.NewRegistry()
//	providers.RegisterDefaults(registry)
//
// Configuration comes from the per-provider environment variables; pass
// options (or call Register yourself with a configured provider) to override.
func RegisterDefaults(registry *botauth.Registry, opts ...Option) {
	registry.RegisterLazy("google", func() (botauth.Provider, error) {
		return NewGoogle("", "", "", opts...), nil
	})
	registry.RegisterLazy("slack", func() (botauth.Provider, error) {
		return NewSlack("", "", "", opts...), nil
	})
	registry.RegisterLazy("highlevel", func() (botauth.Provider, error) {
		return NewHighLevel("", "", "", opts...), nil
	})
}
