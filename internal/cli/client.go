package cli

import (
	"context"
	"net/http"

	"github.com/pomdtr/vt/internal/api"
	"github.com/pomdtr/vt/internal/usercache"
)

// session is an authenticated API client plus the token it was built from.
type session struct {
	client *api.Client
	token  string
}

// newSession resolves the token and builds an API client from the config.
func newSession() (*session, error) {
	c := getConfig()
	token, err := c.ResolveToken(tokenFlag)
	if err != nil {
		return nil, err
	}

	client := api.New(api.Config{
		BaseURL:    c.ResolveAPIURL(),
		Token:      token,
		HTTPClient: &http.Client{Timeout: c.Timeout()},
		UserAgent:  "vt/" + currentVersionInfo().Version,
		Logger:     getLogger(),
	})
	return &session{client: client, token: token}, nil
}

// currentUser returns the account behind the token, cached on disk per token.
func (s *session) currentUser(ctx context.Context) (*api.User, error) {
	dir, err := usercache.DefaultDir()
	if err != nil {
		getLogger().Debug("user cache disabled", "err", err)
		return s.client.CurrentUser(ctx)
	}
	cache := &usercache.Cache{Dir: dir}
	return cache.Load(ctx, s.token, s.client)
}
