package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/relaybot/botauth"
)

// SlackTokenURL is Slack's OAuth v2 token endpoint. It serves both the
// initial exchange and refresh grants when token rotation is enabled.
const SlackTokenURL = "https://slack.com/api/oauth.v2.access"

// SlackAPIBaseURL is the Web API base for constructed clients.
const SlackAPIBaseURL = "https://slack.com/api/"

// Slack implements the provider contract for Slack workspaces. Bot tokens
// normally never expire, so stored credentials carry no refresh token or
// expiry and are returned as-is forever; workspaces with token rotation
// enabled get rotating refresh tokens and the standard refresh exchange.
type Slack struct {
	Base
}

// NewSlack creates the Slack provider. Empty configuration values fall back
// to the BOTAUTH_SLACK_CLIENT_ID, BOTAUTH_SLACK_CLIENT_SECRET and
// BOTAUTH_SLACK_REDIRECT_URL environment variables.
func NewSlack(clientID, clientSecret, redirectURL string, opts ...Option) *Slack {
	clientID = envOr(clientID, "BOTAUTH_SLACK_CLIENT_ID")
	clientSecret = envOr(clientSecret, "BOTAUTH_SLACK_CLIENT_SECRET")
	redirectURL = envOr(redirectURL, "BOTAUTH_SLACK_REDIRECT_URL")

	s := &Slack{
		Base: newBase("slack", clientID, clientSecret, redirectURL, SlackTokenURL),
	}
	for _, opt := range opts {
		opt(&s.Base)
	}
	return s
}

// RefreshToken exchanges a rotating refresh token. Slack reports failures
// with a 200 status and ok=false, so that case is mapped to the refresh error
// alongside transport-level failures.
func (s *Slack) RefreshToken(ctx context.Context, refreshToken string) (*botauth.TokenGrant, error) {
	tr, err := s.refreshGrant(ctx, refreshToken, nil)
	if err != nil {
		return nil, err
	}
	if tr.OK != nil && !*tr.OK {
		return nil, botauth.NewRefreshError(s.Name(), http.StatusOK, errorDetail(tr))
	}
	return &botauth.TokenGrant{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Scope:        tr.Scope,
	}, nil
}

// NewClient returns a *SlackClient bound to the Web API and authorized with
// the credential's bot token.
func (s *Slack) NewClient(ctx context.Context, cred *botauth.Credential) (any, error) {
	return &SlackClient{
		BaseURL:    SlackAPIBaseURL,
		httpClient: newBearerClient(cred.AccessToken(), s.httpClient),
	}, nil
}

// SlackClient is a thin authorized handle on the Slack Web API. Message and
// channel operations live with the caller; this client only guarantees every
// request carries a valid bot token.
type SlackClient struct {
	BaseURL string

	httpClient *http.Client
}

// HTTPClient returns the authorized HTTP client.
func (c *SlackClient) HTTPClient() *http.Client {
	return c.httpClient
}

// MethodURL returns the full URL for a Web API method name.
func (c *SlackClient) MethodURL(method string) string {
	return c.BaseURL + strings.TrimPrefix(method, "/")
}
