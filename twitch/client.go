// Package twitch wraps the handful of Twitch OAuth operations this module needs:
// exchanging an authorization code, validating and refreshing access tokens, and
// revoking them on logout.
package twitch

import (
	"context"
	"net/http"
	"time"

	"github.com/nicklaw5/helix/v2"

	"github.com/obscopilot/twitchauth"
)

// Identity is the result of validating an access token against Twitch: who the
// token belongs to and which client it was issued for.
type Identity struct {
	ClientId string
	UserId   string
	Login    string
	Scopes   []string
}

// Client performs the outbound OAuth calls for a single role's application
// credentials. Calls are plain round-trips with no retry; callers decide whether
// and when to retry.
type Client interface {
	AuthorizationUrl(state string, scopes []string, forceVerify bool) (string, error)
	ExchangeCode(ctx context.Context, code string) (*helix.AccessCredentials, error)
	Validate(ctx context.Context, accessToken string) (*Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*helix.AccessCredentials, error)
	Revoke(ctx context.Context, accessToken string) error
}

// NewClient returns a Client bound to one application's credentials and the
// redirect URI registered for it. The same redirectUri value is used both when
// building the authorization URL and when exchanging the code, since Twitch
// requires an exact match between the two.
func NewClient(creds twitchauth.ClientCredentials, redirectUri string) Client {
	return &client{
		clientId:     creds.ClientId,
		clientSecret: creds.ClientSecret,
		redirectUri:  redirectUri,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

type client struct {
	clientId     string
	clientSecret string
	redirectUri  string
	httpClient   *http.Client
}

func (c *client) newHelixClient(ctx context.Context) (*helix.Client, error) {
	hc, err := helix.NewClientWithContext(ctx, &helix.Options{
		ClientID:     c.clientId,
		ClientSecret: c.clientSecret,
		RedirectURI:  c.redirectUri,
		HTTPClient:   c.httpClient,
	})
	if err != nil {
		return nil, twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to initialize twitch client")
	}
	return hc, nil
}

func (c *client) AuthorizationUrl(state string, scopes []string, forceVerify bool) (string, error) {
	// GetAuthorizationURL does no I/O, so a background client is fine here
	hc, err := helix.NewClient(&helix.Options{
		ClientID:    c.clientId,
		RedirectURI: c.redirectUri,
	})
	if err != nil {
		return "", twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to initialize twitch client")
	}
	return hc.GetAuthorizationURL(&helix.AuthorizationURLParams{
		ResponseType: "code",
		Scopes:       scopes,
		State:        state,
		ForceVerify:  forceVerify,
	}), nil
}

func (c *client) ExchangeCode(ctx context.Context, code string) (*helix.AccessCredentials, error) {
	hc, err := c.newHelixClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := hc.RequestUserAccessToken(code)
	if err != nil {
		return nil, twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to exchange authorization code")
	}
	if r.StatusCode != http.StatusOK {
		return nil, twitchauth.NewError(twitchauth.KindExchangeFailed, "got %d response from token endpoint: %s", r.StatusCode, r.ErrorMessage)
	}
	return &r.Data, nil
}

func (c *client) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	hc, err := c.newHelixClient(ctx)
	if err != nil {
		return nil, err
	}

	isValid, r, err := hc.ValidateToken(accessToken)
	if err != nil {
		return nil, twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to validate access token")
	}
	if !isValid {
		return nil, twitchauth.NewError(twitchauth.KindExchangeFailed, "got %d response from validate endpoint: %s", r.StatusCode, r.ErrorMessage)
	}
	if r.Data.ClientID != c.clientId {
		// A token issued to some other application must never be accepted, even
		// if Twitch considers it valid
		return nil, twitchauth.NewError(twitchauth.KindTokenNotOurs, "access token was issued to a different client id")
	}
	return &Identity{
		ClientId: r.Data.ClientID,
		UserId:   r.Data.UserID,
		Login:    r.Data.Login,
		Scopes:   r.Data.Scopes,
	}, nil
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (*helix.AccessCredentials, error) {
	hc, err := c.newHelixClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := hc.RefreshUserAccessToken(refreshToken)
	if err != nil {
		return nil, twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to refresh access token")
	}
	if r.StatusCode != http.StatusOK {
		return nil, twitchauth.NewError(twitchauth.KindExchangeFailed, "got %d response from token endpoint: %s", r.StatusCode, r.ErrorMessage)
	}
	return &r.Data, nil
}

func (c *client) Revoke(ctx context.Context, accessToken string) error {
	hc, err := c.newHelixClient(ctx)
	if err != nil {
		return err
	}

	r, err := hc.RevokeUserAccessToken(accessToken)
	if err != nil {
		return twitchauth.WrapError(err, twitchauth.KindNetworkError, "failed to revoke access token")
	}
	if r.StatusCode != http.StatusOK {
		return twitchauth.NewError(twitchauth.KindExchangeFailed, "got %d response from revoke endpoint: %s", r.StatusCode, r.ErrorMessage)
	}
	return nil
}

var _ Client = (*client)(nil)

// Factory builds a Client for one role's credentials; the coordinator and the
// lifecycle manager take a Factory so tests can substitute a fake.
type Factory func(creds twitchauth.ClientCredentials, redirectUri string) Client
