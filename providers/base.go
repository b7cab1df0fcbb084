// Package providers contains the built-in provider implementations for
// botauth: google (calendar/mail/contacts), slack (messaging) and highlevel
// (CRM). Each encapsulates one platform's refresh wire format and client
// construction behind the botauth.Provider contract.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/relaybot/botauth"
)

// DefaultHTTPTimeout bounds refresh calls when no custom client is injected.
const DefaultHTTPTimeout = 30 * time.Second

// Base holds the configuration shared by every provider: OAuth client
// credentials, the token endpoint, and an injectable HTTP client. TokenURL is
// exported so tests can point a provider at a local endpoint.
type Base struct {
	name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string

	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a provider's Base.
type Option func(*Base)

// WithHTTPClient sets a custom HTTP client for token-endpoint calls.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Base) { b.httpClient = client }
}

// WithTokenURL overrides the provider's token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(b *Base) { b.TokenURL = tokenURL }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) { b.logger = logger }
}

func newBase(name, clientID, clientSecret, redirectURL, tokenURL string) Base {
	return Base{
		name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		TokenURL:     tokenURL,
		httpClient:   &http.Client{Timeout: DefaultHTTPTimeout},
		logger:       slog.Default(),
	}
}

// Name returns the provider's registry name.
func (b *Base) Name() string { return b.name }

// tokenResponse is the common shape of OAuth token-endpoint responses,
// including the provider-specific fields the built-ins care about.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`

	// Slack wraps errors in a 200 response.
	OK        *bool  `json:"ok,omitempty"`
	ErrorTag  string `json:"error"`
	ErrorDesc string `json:"error_description"`

	// HighLevel tenant fields.
	LocationID string `json:"locationId"`
	UserID     string `json:"userId"`
}

// refreshGrant POSTs a refresh_token grant to the provider's token endpoint
// and decodes the response. extra is merged into the form body for providers
// that need additional parameters. Non-success responses become the
// provider-tagged refresh error carrying the status and the endpoint's error
// description; token values are never echoed into errors or logs.
func (b *Base) refreshGrant(ctx context.Context, refreshToken string, extra url.Values) (*tokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {b.ClientID},
		"client_secret": {b.ClientSecret},
	}
	for k, vs := range extra {
		for _, v := range vs {
			data.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request to %s failed: %w", b.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if unmarshalErr := json.Unmarshal(body, &tr); unmarshalErr != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to parse token response from %s: %w", b.name, unmarshalErr)
	}

	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("token refresh rejected",
			"provider", b.name,
			"status", resp.StatusCode,
			"error", tr.ErrorTag)
		return nil, botauth.NewRefreshError(b.name, resp.StatusCode, errorDetail(&tr))
	}
	return &tr, nil
}

func errorDetail(tr *tokenResponse) string {
	switch {
	case tr.ErrorDesc != "":
		return fmt.Sprintf("%s: %s", tr.ErrorTag, tr.ErrorDesc)
	case tr.ErrorTag != "":
		return tr.ErrorTag
	default:
		return "no error description"
	}
}

// bearerTransport authorizes every request with a fixed bearer token.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

// newBearerClient builds an HTTP client whose requests carry the credential's
// access token.
func newBearerClient(token string, base *http.Client) *http.Client {
	transport := http.DefaultTransport
	timeout := DefaultHTTPTimeout
	if base != nil {
		if base.Transport != nil {
			transport = base.Transport
		}
		if base.Timeout != 0 {
			timeout = base.Timeout
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &bearerTransport{token: token, base: transport},
	}
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv(key))
}
