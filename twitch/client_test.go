package twitch

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscopilot/twitchauth"
)

func Test_AuthorizationUrl(t *testing.T) {
	c := NewClient(twitchauth.ClientCredentials{
		ClientId:     "test-client-id",
		ClientSecret: "test-client-secret",
	}, "http://localhost:17563/auth/callback")

	raw, err := c.AuthorizationUrl("test-state-token", []string{"chat:read", "chat:edit"}, true)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "id.twitch.tv", u.Host)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "test-client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:17563/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "test-state-token", q.Get("state"))
	assert.Equal(t, "true", q.Get("force_verify"))
	assert.Contains(t, q.Get("scope"), "chat:read")
}

func Test_AuthorizationUrl_missingClientId(t *testing.T) {
	c := NewClient(twitchauth.ClientCredentials{}, "http://localhost:17563/auth/callback")

	_, err := c.AuthorizationUrl("test-state-token", nil, false)
	assert.Error(t, err, "a client with no client id must fail rather than produce an unusable URL")
}
