package botauth

import (
	"fmt"
	"sync"
)

// ProviderLoader constructs a provider on first use, so registering a
// provider does not pull in its SDK until something resolves it.
type ProviderLoader func() (Provider, error)

// Registry maps provider names to implementations. It is an explicit object,
// not package state, so tests can substitute fake providers without
// process-wide side effects. Populate it once at bootstrap; Register may also
// be called at runtime and overwrites any previous entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// registryEntry is a compute-once cell: the loader runs at most once even
// under concurrent first use, and its outcome (provider or error) is cached.
type registryEntry struct {
	once     sync.Once
	loader   ProviderLoader
	provider Provider
	err      error
}

func (e *registryEntry) get() (Provider, error) {
	e.once.Do(func() {
		e.provider, e.err = e.loader()
	})
	return e.provider, e.err
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register inserts or overwrites a provider under the given name.
func (r *Registry) Register(name string, provider Provider) {
	r.RegisterLazy(name, func() (Provider, error) { return provider, nil })
}

// RegisterLazy inserts or overwrites a lazily constructed provider. The
// loader runs on first Resolve; a load failure surfaces from Resolve as
// PROVIDER_NOT_SUPPORTED, not as a raw loader error.
func (r *Registry) RegisterLazy(name string, loader ProviderLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &registryEntry{loader: loader}
}

// Resolve returns the provider registered under name, instantiating it on
// first use. Unknown names and failed loads both yield an error tagged
// ErrCodeProviderNotSupported carrying the offending name.
func (r *Registry) Resolve(name string) (Provider, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{
			Code:     ErrCodeProviderNotSupported,
			Provider: name,
			Message:  fmt.Sprintf("provider %q is not supported", name),
		}
	}

	provider, err := entry.get()
	if err != nil {
		return nil, &Error{
			Code:     ErrCodeProviderNotSupported,
			Provider: name,
			Message:  fmt.Sprintf("provider %q failed to load", name),
			Err:      err,
		}
	}
	return provider, nil
}

// Names returns the registered provider names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
