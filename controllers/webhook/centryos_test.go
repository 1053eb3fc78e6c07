package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"orionpay/models"
	"orionpay/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webhook-test-secret"

type memStore struct {
	byTxID map[string]*models.Transaction
}

func (s *memStore) TransactionByProviderID(txID string) (*models.Transaction, error) {
	return s.byTxID[txID], nil
}

func (s *memStore) CreateTransaction(txn *models.Transaction) error {
	if txn.TransactionID != nil {
		s.byTxID[*txn.TransactionID] = txn
	}
	return nil
}

func (s *memStore) SaveTransaction(txn *models.Transaction) error { return nil }

func (s *memStore) UserByID(id uint) (*models.User, error) { return nil, nil }

func (s *memStore) UserByProviderIDs(entityID, walletID string) (*models.User, error) {
	return nil, nil
}

func (s *memStore) PartnerByCode(code string) (*models.Partner, error) { return nil, nil }

type noopMailer struct{}

func (noopMailer) SendTransactionReceipt(to string, txn *models.Transaction) error { return nil }

func newTestApp() (*fiber.App, *memStore) {
	store := &memStore{byTxID: map[string]*models.Transaction{}}
	processor := services.NewWebhookProcessor(testSecret, store, noopMailer{})

	app := fiber.New()
	app.Post("/webhooks/centryos", NewHandler(processor).HandleCentryOS)
	return app, store
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func post(app *fiber.App, body []byte, signature string) (int, map[string]any) {
	req := httptest.NewRequest("POST", "/webhooks/centryos", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("signature", signature)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed map[string]any
	json.Unmarshal(raw, &parsed)
	return resp.StatusCode, parsed
}

func TestWebhookEndpoint_CreatedThenUpdated(t *testing.T) {
	app, store := newTestApp()

	body := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"transactionId":"test-tx-123","amount":41.99,"entityId":"ent-123","walletId":"wallet-123"}}`)

	status, resp := post(app, body, sign(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["created"])

	require.Contains(t, store.byTxID, "test-tx-123")

	status, resp = post(app, body, sign(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["created"])
}

func TestWebhookEndpoint_MissingSignature(t *testing.T) {
	app, store := newTestApp()

	body := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"transactionId":"tx-no-sig"}}`)

	status, resp := post(app, body, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, resp["success"])
	assert.NotContains(t, store.byTxID, "tx-no-sig")
}

func TestWebhookEndpoint_UnknownEventIgnored(t *testing.T) {
	app, store := newTestApp()

	body := []byte(`{"eventType":"PING","status":"completed","payload":{"transactionId":"tx-ping"}}`)

	status, resp := post(app, body, sign(body))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["ignored"])
	assert.Empty(t, store.byTxID)
}

func TestWebhookEndpoint_EmptyBody(t *testing.T) {
	app, _ := newTestApp()

	status, resp := post(app, nil, sign(nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, resp["success"])
}

func TestWebhookEndpoint_TamperedBody(t *testing.T) {
	app, store := newTestApp()

	body := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"transactionId":"tx-tamper"}}`)
	tampered := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"transactionId":"tx-tamper","amount":9999}}`)

	status, _ := post(app, tampered, sign(body))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Empty(t, store.byTxID)
}
