package centryos

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Tokens expire after 60 minutes; refresh a little early.
const tokenTTL = 55 * time.Minute

type tokenCache struct {
	mu     sync.Mutex
	value  string
	expiry time.Time
}

// Token returns the cached bearer token, generating a fresh one when the
// cache is empty or near expiry.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.value != "" && time.Now().Before(c.tokens.expiry) {
		return c.tokens.value, nil
	}

	logrus.Info("generating new CentryOS token")

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	err := c.postJSON(ctx, c.accountsBaseURL+"/v1/ext/jwt/generate-token", map[string]any{}, &resp, func(req *http.Request) {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	})
	if err != nil {
		return "", err
	}

	if resp.Data.Token == "" {
		return "", &APIError{Message: "invalid token response"}
	}

	c.tokens.value = resp.Data.Token
	c.tokens.expiry = time.Now().Add(tokenTTL)

	return c.tokens.value, nil
}
