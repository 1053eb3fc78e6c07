package centryos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Client talks to the CentryOS accounts and liquidity APIs. It owns the
// cached bearer token; nothing else in the codebase touches provider
// credentials.
type Client struct {
	httpClient *http.Client

	accountsBaseURL  string
	liquidityBaseURL string
	clientID         string
	clientSecret     string
	frontendURL      string

	tokens tokenCache
}

func NewClientFromEnv() *Client {
	return &Client{
		httpClient:       &http.Client{Timeout: 10 * time.Second},
		accountsBaseURL:  os.Getenv("CENTRYOS_ACCOUNTS_BASE_URL"),
		liquidityBaseURL: os.Getenv("CENTRYOS_LIQUIDITY_BASE_URL"),
		clientID:         os.Getenv("CENTRYOS_CLIENT_ID"),
		clientSecret:     os.Getenv("CENTRYOS_CLIENT_SECRET"),
		frontendURL:      os.Getenv("FRONTEND_URL"),
	}
}

// APIError is a failed or malformed provider response, kept with enough
// context for the caller layer to translate into an HTTP error.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("centryos: %s (status %d)", e.Message, e.StatusCode)
	}
	return "centryos: " + e.Message
}

func (c *Client) postJSON(ctx context.Context, url string, body any, out any, authorize func(*http.Request)) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "failed to read response body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: "unexpected status", Body: string(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unexpected response shape", Body: string(raw)}
	}

	return nil
}

func (c *Client) postAuthed(ctx context.Context, url string, body any, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	return c.postJSON(ctx, url, body, out, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
}

// Onboarding is the provider-side identity created for a new local user.
type Onboarding struct {
	EntityID string
	WalletID string
}

type AccountParams struct {
	FirstName  string
	LastName   string
	Email      string
	Identifier string
}

// CreateUserAndWallet creates the provider account and its SPEND wallet.
// The wallet endpoint is called twice: the first call creates, the second
// returns the wallet list we pick the USD wallet from.
func (c *Client) CreateUserAndWallet(ctx context.Context, params AccountParams) (*Onboarding, error) {
	logrus.WithField("identifier", params.Identifier).Info("creating CentryOS account")

	var userResp struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	err := c.postAuthed(ctx, c.accountsBaseURL+"/v1/ext/account/create-user", map[string]any{
		"firstName":  params.FirstName,
		"lastName":   params.LastName,
		"email":      params.Email,
		"identifier": params.Identifier,
		"type":       "USER",
	}, &userResp)
	if err != nil {
		return nil, err
	}
	if userResp.Account.ID == "" {
		return nil, &APIError{Message: "account id missing from create-user response"}
	}

	entityID := userResp.Account.ID

	walletReq := map[string]any{
		"entityId":   entityID,
		"walletType": "SPEND",
	}

	var createResp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.postAuthed(ctx, c.liquidityBaseURL+"/v1/ext/wallet/create", walletReq, &createResp); err != nil {
		return nil, err
	}
	if !createResp.Success {
		return nil, &APIError{Message: "wallet creation failed: " + createResp.Message}
	}

	var fetchResp struct {
		Success bool `json:"success"`
		Wallets []struct {
			ID       string `json:"id"`
			Currency string `json:"currency"`
		} `json:"wallets"`
	}
	if err := c.postAuthed(ctx, c.liquidityBaseURL+"/v1/ext/wallet/create", walletReq, &fetchResp); err != nil {
		return nil, err
	}
	if !fetchResp.Success {
		return nil, &APIError{Message: "failed to fetch wallets"}
	}

	for _, w := range fetchResp.Wallets {
		if w.Currency == "USD" && w.ID != "" {
			logrus.WithFields(logrus.Fields{
				"entityId": entityID,
				"walletId": w.ID,
			}).Info("CentryOS account ready")
			return &Onboarding{EntityID: entityID, WalletID: w.ID}, nil
		}
	}

	return nil, &APIError{Message: "USD wallet not found"}
}
