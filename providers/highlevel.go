package providers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/relaybot/botauth"
)

// HighLevelTokenURL is the HighLevel CRM token endpoint.
const HighLevelTokenURL = "https://services.leadconnectorhq.com/oauth/token"

// HighLevelAPIBaseURL is the CRM API base for constructed clients.
const HighLevelAPIBaseURL = "https://services.leadconnectorhq.com/"

// HighLevelAPIVersion is the API version header the CRM requires.
const HighLevelAPIVersion = "2021-07-28"

// KeyLocationID is the payload extension field carrying the CRM tenant
// (location) a credential is bound to. It is set at authorization time,
// re-confirmed on every refresh, and threaded into constructed clients.
const KeyLocationID = "location_id"

// HighLevel implements the provider contract for the HighLevel CRM. Its
// tokens are tenant-scoped: every credential belongs to one location, and the
// token endpoint reports the location on each grant.
type HighLevel struct {
	Base
}

// NewHighLevel creates the HighLevel provider. Empty configuration values
// fall back to the BOTAUTH_HIGHLEVEL_CLIENT_ID, BOTAUTH_HIGHLEVEL_CLIENT_SECRET
// and BOTAUTH_HIGHLEVEL_REDIRECT_URL environment variables.
func NewHighLevel(clientID, clientSecret, redirectURL string, opts ...Option) *HighLevel {
	clientID = envOr(clientID, "BOTAUTH_HIGHLEVEL_CLIENT_ID")
	clientSecret = envOr(clientSecret, "BOTAUTH_HIGHLEVEL_CLIENT_SECRET")
	redirectURL = envOr(redirectURL, "BOTAUTH_HIGHLEVEL_REDIRECT_URL")

	h := &HighLevel{
		Base: newBase("highlevel", clientID, clientSecret, redirectURL, HighLevelTokenURL),
	}
	for _, opt := range opts {
		opt(&h.Base)
	}
	return h
}

// RefreshToken exchanges the refresh token. HighLevel rotates both tokens on
// every refresh and reports the owning location, which is persisted back so
// client construction always sees the current tenant binding.
func (h *HighLevel) RefreshToken(ctx context.Context, refreshToken string) (*botauth.TokenGrant, error) {
	tr, err := h.refreshGrant(ctx, refreshToken, url.Values{"user_type": {"Location"}})
	if err != nil {
		return nil, err
	}

	grant := &botauth.TokenGrant{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Scope:        tr.Scope,
	}
	if tr.LocationID != "" {
		grant.Extra = map[string]any{KeyLocationID: tr.LocationID}
	}
	return grant, nil
}

// NewClient returns a *HighLevelClient authorized with the credential and
// bound to its location.
func (h *HighLevel) NewClient(ctx context.Context, cred *botauth.Credential) (any, error) {
	return &HighLevelClient{
		BaseURL:    HighLevelAPIBaseURL,
		LocationID: cred.PayloadString(KeyLocationID),
		httpClient: newBearerClient(cred.AccessToken(), h.httpClient),
	}, nil
}

// HighLevelClient is a thin authorized handle on the HighLevel CRM API,
// carrying the tenant location every request must target.
type HighLevelClient struct {
	BaseURL    string
	LocationID string

	httpClient *http.Client
}

// HTTPClient returns the authorized HTTP client.
func (c *HighLevelClient) HTTPClient() *http.Client {
	return c.httpClient
}

// NewRequest builds an API request with the version header and, when the
// credential is location-bound, the location query parameter set.
func (c *HighLevelClient) NewRequest(ctx context.Context, method, path string) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u = u.ResolveReference(rel)
	if c.LocationID != "" {
		q := u.Query()
		q.Set("locationId", c.LocationID)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Version", HighLevelAPIVersion)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
