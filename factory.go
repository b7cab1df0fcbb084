package botauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
)

// Service is the client factory and the entry point domain code should use:
// it turns a CredentialRef into an authorized provider client, a narrowed
// sub-service client, or a bare access token.
type Service struct {
	registry *Registry
	resolver *Resolver
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets a custom logger for the service and its resolver.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithResolver substitutes a pre-built resolver (custom buffer, clock).
func WithResolver(resolver *Resolver) ServiceOption {
	return func(s *Service) { s.resolver = resolver }
}

// NewService wires a Service from a credential store and provider registry.
func NewService(store CredentialStore, registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = NewResolver(store, registry, WithResolverLogger(s.logger))
	}
	return s
}

// Resolver returns the underlying resolver, for callers that need the raw
// credential rather than a client.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// GetToken returns a valid bearer token for the ref, refreshing first if
// needed. For callers that build their own requests.
func (s *Service) GetToken(ctx context.Context, ref CredentialRef) (string, error) {
	cred, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	token := cred.AccessToken()
	if token == "" {
		return "", &Error{
			Code:     ErrCodeTokenError,
			Provider: ref.Provider,
			Message:  "stored credential has no access token",
		}
	}
	return token, nil
}

// CreateClient resolves the provider and a valid credential and returns the
// provider's client object. Callers type-assert to the concrete client type
// they expect for that provider.
func (s *Service) CreateClient(ctx context.Context, ref CredentialRef) (any, error) {
	provider, err := s.registry.Resolve(ref.Provider)
	if err != nil {
		return nil, err
	}
	cred, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return provider.NewClient(ctx, cred)
}

// CreateServiceClient returns the named sub-client facade of a provider's
// umbrella client, e.g. a calendar-only client. The sub-client's transport is
// lazy: credentials are resolved on first actual use, not here. Providers
// without sub-services, and unknown service names, fail with
// SERVICE_NOT_SUPPORTED naming both the provider and the service.
func (s *Service) CreateServiceClient(ctx context.Context, ref CredentialRef, service string) (any, error) {
	provider, err := s.registry.Resolve(ref.Provider)
	if err != nil {
		return nil, err
	}
	sp, ok := provider.(ServiceProvider)
	if !ok {
		return nil, &Error{
			Code:     ErrCodeServiceNotSupported,
			Provider: ref.Provider,
			Message:  fmt.Sprintf("provider %q does not expose a %q service client", ref.Provider, service),
		}
	}
	return sp.NewServiceClient(ctx, s.TokenSource(ctx, ref), service)
}

// TokenSource returns a lazy oauth2.TokenSource over the resolver: nothing is
// fetched until the first Token call, and each call re-resolves so the token
// is always current. The source is safe for concurrent use.
func (s *Service) TokenSource(ctx context.Context, ref CredentialRef) oauth2.TokenSource {
	return &resolverTokenSource{ctx: ctx, resolver: s.resolver, ref: ref}
}

// resolverTokenSource adapts the resolver to golang.org/x/oauth2 so SDK
// clients (Google API services, gRPC credentials) pull tokens on demand.
type resolverTokenSource struct {
	ctx      context.Context
	resolver *Resolver
	ref      CredentialRef
	mu       sync.Mutex
}

func (ts *resolverTokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	cred, err := ts.resolver.Resolve(ts.ctx, ts.ref)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: cred.AccessToken(),
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt(),
	}, nil
}
