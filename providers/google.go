package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/relaybot/botauth"
)

// Sub-service names the Google umbrella client can be narrowed to.
const (
	ServiceCalendar = "calendar"
	ServiceGmail    = "gmail"
	ServiceContacts = "contacts"
)

// Payload extension fields the Google provider persists from ID tokens.
const (
	KeyProviderUserID = "provider_user_id"
	KeyEmail          = "email"
)

// Google implements the provider contract for Google Workspace APIs. Access
// tokens are plain bearer tokens with an expires_in lifetime; the umbrella
// client narrows to calendar, gmail and contacts sub-services.
type Google struct {
	Base
}

// NewGoogle creates the Google provider. Empty configuration values fall back
// to the BOTAUTH_GOOGLE_CLIENT_ID, BOTAUTH_GOOGLE_CLIENT_SECRET and
// BOTAUTH_GOOGLE_REDIRECT_URL environment variables.
func NewGoogle(clientID, clientSecret, redirectURL string, opts ...Option) *Google {
	clientID = envOr(clientID, "BOTAUTH_GOOGLE_CLIENT_ID")
	clientSecret = envOr(clientSecret, "BOTAUTH_GOOGLE_CLIENT_SECRET")
	redirectURL = envOr(redirectURL, "BOTAUTH_GOOGLE_REDIRECT_URL")

	g := &Google{
		Base: newBase("google", clientID, clientSecret, redirectURL, google.Endpoint.TokenURL),
	}
	for _, opt := range opts {
		opt(&g.Base)
	}
	return g
}

// RefreshToken exchanges the refresh token at Google's token endpoint. Google
// rotates access tokens only; the stored refresh token survives the merge.
// When the response carries an ID token, the subject and email claims are
// decoded (without signature verification, for bookkeeping only) into payload
// extension fields.
func (g *Google) RefreshToken(ctx context.Context, refreshToken string) (*botauth.TokenGrant, error) {
	tr, err := g.refreshGrant(ctx, refreshToken, nil)
	if err != nil {
		return nil, err
	}

	grant := &botauth.TokenGrant{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Scope:        tr.Scope,
	}
	if tr.IDToken != "" {
		if claims := decodeIDTokenClaims(tr.IDToken); len(claims) > 0 {
			grant.Extra = claims
		}
	}
	return grant, nil
}

// idTokenClaims is the subset of OIDC ID-token claims worth persisting.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func decodeIDTokenClaims(idToken string) map[string]any {
	var claims idTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return nil
	}
	extra := make(map[string]any)
	if claims.Subject != "" {
		extra[KeyProviderUserID] = claims.Subject
	}
	if claims.Email != "" {
		extra[KeyEmail] = claims.Email
	}
	return extra
}

// NewClient returns a *GoogleClient umbrella authorized with the credential's
// current access token.
func (g *Google) NewClient(ctx context.Context, cred *botauth.Credential) (any, error) {
	return NewGoogleClient(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken(),
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt(),
	})), nil
}

// NewServiceClient narrows the umbrella client to one sub-service. The token
// source is consulted on first API call, not here.
func (g *Google) NewServiceClient(ctx context.Context, src oauth2.TokenSource, service string) (any, error) {
	client := NewGoogleClient(src)
	switch service {
	case ServiceCalendar:
		return client.Calendar(ctx)
	case ServiceGmail:
		return client.Gmail(ctx)
	case ServiceContacts:
		return client.People(ctx)
	default:
		return nil, &botauth.Error{
			Code:     botauth.ErrCodeServiceNotSupported,
			Provider: g.Name(),
			Message:  fmt.Sprintf("provider %q has no %q service client", g.Name(), service),
		}
	}
}

// GoogleClient is the umbrella over Google's per-product services. All
// sub-services share one token source; each service handle is built once on
// first request.
type GoogleClient struct {
	src oauth2.TokenSource

	mu       sync.Mutex
	calendar *calendar.Service
	gmail    *gmail.Service
	people   *people.Service
}

// NewGoogleClient creates an umbrella client over a token source.
func NewGoogleClient(src oauth2.TokenSource) *GoogleClient {
	return &GoogleClient{src: src}
}

// TokenSource exposes the client's token source, for callers composing their
// own Google SDK services.
func (c *GoogleClient) TokenSource() oauth2.TokenSource {
	return c.src
}

// Calendar returns the calendar sub-service.
func (c *GoogleClient) Calendar(ctx context.Context) (*calendar.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calendar == nil {
		svc, err := calendar.NewService(ctx, option.WithTokenSource(c.src))
		if err != nil {
			return nil, fmt.Errorf("failed to build calendar client: %w", err)
		}
		c.calendar = svc
	}
	return c.calendar, nil
}

// Gmail returns the mail sub-service.
func (c *GoogleClient) Gmail(ctx context.Context) (*gmail.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gmail == nil {
		svc, err := gmail.NewService(ctx, option.WithTokenSource(c.src))
		if err != nil {
			return nil, fmt.Errorf("failed to build gmail client: %w", err)
		}
		c.gmail = svc
	}
	return c.gmail, nil
}

// People returns the contacts sub-service.
func (c *GoogleClient) People(ctx context.Context) (*people.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.people == nil {
		svc, err := people.NewService(ctx, option.WithTokenSource(c.src))
		if err != nil {
			return nil, fmt.Errorf("failed to build contacts client: %w", err)
		}
		c.people = svc
	}
	return c.people, nil
}
