package centryos

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Link is the normalized shape both link-creation calls reduce to.
type Link struct {
	URL           string `json:"url"`
	Token         string `json:"token"`
	ExpiredAt     string `json:"expiredAt"`
	ApplicationID string `json:"applicationId"`
}

type linkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		URL         string `json:"url"`
		Application struct {
			ID        string `json:"id"`
			Token     string `json:"token"`
			ExpiredAt string `json:"expiredAt"`
		} `json:"application"`
	} `json:"data"`
}

type PaymentDetails struct {
	Amount        float64
	Currency      string
	Name          string
	ExpiredAt     string
	CustomUrlPath string
}

// CreatePaymentLink creates a provider-hosted collection checkout page.
// externalId carries the local user id so the webhook can associate the
// resulting COLLECTION event back to the account.
func (c *Client) CreatePaymentLink(ctx context.Context, userID uint, email string, details PaymentDetails) (*Link, error) {
	if details.Currency == "" {
		details.Currency = "USD"
	}
	if details.ExpiredAt == "" {
		details.ExpiredAt = time.Now().Add(15 * time.Minute).UTC().Format(time.RFC3339)
	}
	if details.CustomUrlPath == "" {
		details.CustomUrlPath = fmt.Sprintf("pay-%d-%d", userID, time.Now().UnixMilli())
	}
	if details.Name == "" {
		details.Name = fmt.Sprintf("Payment - $%.2f", details.Amount)
	}

	logrus.WithFields(logrus.Fields{
		"email":  email,
		"amount": details.Amount,
	}).Info("creating payment link")

	var resp linkResponse
	err := c.postAuthed(ctx, c.liquidityBaseURL+"/v1/ext/collections/payment-link", map[string]any{
		"currency":               details.Currency,
		"amount":                 details.Amount,
		"name":                   details.Name,
		"expiredAt":              details.ExpiredAt,
		"redirectTo":             c.frontendURL,
		"amountLocked":           true,
		"customerPays":           false,
		"customUrlPath":          details.CustomUrlPath,
		"isOpenLink":             false,
		"acceptedPaymentOptions": []string{"card", "google_pay", "apple_pay"},
		"externalId":             fmt.Sprintf("%d", userID),
		"customFields":           []string{"Game Name", "Game Username"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Message: "payment link creation failed: " + resp.Message}
	}

	return &Link{
		URL:           resp.Data.URL,
		Token:         resp.Data.Application.Token,
		ExpiredAt:     resp.Data.Application.ExpiredAt,
		ApplicationID: resp.Data.Application.ID,
	}, nil
}

type PayoutParty struct {
	FirstName string
	LastName  string
	Email     string
}

// CreatePayoutLink creates an account-widget withdrawal page. Game
// identifiers travel as top-level customData so the WITHDRAWAL webhook
// carries them back.
func (c *Client) CreatePayoutLink(ctx context.Context, party PayoutParty, amount float64, gameName, gameUsername string) (*Link, error) {
	extra := map[string]any{
		"withdrawalSource": "MERCHANT_WALLET",
		"accountOptions":   []string{"bank", "card", "paypal", "venmo"},
		"counterparty": map[string]any{
			"firstName": party.FirstName,
			"lastName":  party.LastName,
			"email":     party.Email,
		},
		"amount": amount,
	}

	body := map[string]any{
		"tokenType":  "ACCOUNT_WIDGET",
		"currency":   "USD",
		"expiredAt":  time.Now().Add(7 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"redirectTo": c.frontendURL,
		"extra":      extra,
	}
	if gameName != "" && gameUsername != "" {
		body["customData"] = map[string]string{
			"Game Name":     gameName,
			"Game Username": gameUsername,
		}
	}

	logrus.WithFields(logrus.Fields{
		"email":  party.Email,
		"amount": amount,
	}).Info("creating payout link")

	var resp linkResponse
	err := c.postAuthed(ctx, c.liquidityBaseURL+"/v1/ext/application-token", body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Message: "payout link creation failed: " + resp.Message}
	}

	link := &Link{
		URL:           resp.Data.URL,
		Token:         resp.Data.Application.Token,
		ExpiredAt:     resp.Data.Application.ExpiredAt,
		ApplicationID: resp.Data.Application.ID,
	}
	if link.URL == "" {
		return nil, &APIError{Message: "payout link creation succeeded but no URL was returned"}
	}

	return link, nil
}
