package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"

	"orionpay/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "afebea6fc11fff13260c77699844f7ec"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeStore struct {
	byTxID   map[string]*models.Transaction
	created  []*models.Transaction
	saved    []*models.Transaction
	users    map[uint]*models.User
	byEntity map[string]*models.User
	partners map[string]*models.Partner
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byTxID:   map[string]*models.Transaction{},
		users:    map[uint]*models.User{},
		byEntity: map[string]*models.User{},
		partners: map[string]*models.Partner{},
	}
}

func (s *fakeStore) TransactionByProviderID(txID string) (*models.Transaction, error) {
	return s.byTxID[txID], nil
}

func (s *fakeStore) CreateTransaction(txn *models.Transaction) error {
	s.nextID++
	txn.ID = s.nextID
	s.created = append(s.created, txn)
	if txn.TransactionID != nil {
		s.byTxID[*txn.TransactionID] = txn
	}
	return nil
}

func (s *fakeStore) SaveTransaction(txn *models.Transaction) error {
	s.saved = append(s.saved, txn)
	return nil
}

func (s *fakeStore) UserByID(id uint) (*models.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) UserByProviderIDs(entityID, walletID string) (*models.User, error) {
	if entityID != "" {
		if u, ok := s.byEntity[entityID]; ok {
			return u, nil
		}
	}
	if walletID != "" {
		return s.byEntity[walletID], nil
	}
	return nil, nil
}

func (s *fakeStore) PartnerByCode(code string) (*models.Partner, error) {
	return s.partners[code], nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) SendTransactionReceipt(to string, txn *models.Transaction) error {
	m.sent = append(m.sent, to)
	if m.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}

func newProcessor() (*WebhookProcessor, *fakeStore, *fakeMailer) {
	store := newFakeStore()
	mail := &fakeMailer{}
	return NewWebhookProcessor(testSecret, store, mail), store, mail
}

func TestProcess_WithdrawalCreated(t *testing.T) {
	body := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"entry":"DEBIT","amount":41.99,"method":"DEBIT_CARD","summary":"Payment sent","currency":"USD","entityId":"ent-123","walletId":"wallet-123","timestamp":1766131682806,"entityType":"USER","description":"Payment sent","transactionId":"test-tx-123","paymentLink":{"id":"link-1","token":"token-1"},"feeCharged":"1.4"}}`)

	p, store, _ := newProcessor()

	result, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)
	assert.False(t, result.Ignored)
	assert.True(t, result.Created)

	require.Len(t, store.created, 1)
	txn := store.created[0]
	assert.Equal(t, models.EventWithdrawal, txn.EventType)
	assert.Equal(t, "SUCCESS", txn.Status)
	require.NotNil(t, txn.TransactionID)
	assert.Equal(t, "test-tx-123", *txn.TransactionID)
	require.True(t, txn.Amount.Valid)
	assert.True(t, txn.Amount.Decimal.Equal(decimal.RequireFromString("41.99")))
	assert.Equal(t, "1.4", txn.FeeCharged)
	require.NotNil(t, txn.Timestamp)
	assert.Equal(t, int64(1766131682806), txn.Timestamp.UnixMilli())
	assert.JSONEq(t, string(body), string(txn.RawPayload))
}

func TestProcess_RedeliveryUpdatesMutableFieldsOnly(t *testing.T) {
	first := []byte(`{"eventType":"WITHDRAWAL","status":"PENDING","payload":{"transactionId":"tx-1","amount":"10.00","summary":"first","entityId":"ent-9"}}`)
	second := []byte(`{"eventType":"WITHDRAWAL","status":"SUCCESS","payload":{"transactionId":"tx-1","amount":"999.99","summary":"second","description":"done","entityId":"ent-other"}}`)

	p, store, _ := newProcessor()

	result, err := p.Process("req-1", first, sign(testSecret, first))
	require.NoError(t, err)
	assert.True(t, result.Created)

	result, err = p.Process("req-2", second, sign(testSecret, second))
	require.NoError(t, err)
	assert.False(t, result.Created)

	require.Len(t, store.created, 1)
	require.Len(t, store.saved, 1)

	txn := store.saved[0]
	assert.Equal(t, "SUCCESS", txn.Status)
	assert.Equal(t, "second", txn.Summary)
	assert.Equal(t, "done", txn.Description)
	assert.JSONEq(t, string(second), string(txn.RawPayload))

	// Identity fields keep their first-delivery values.
	assert.Equal(t, "ent-9", txn.EntityID)
	assert.True(t, txn.Amount.Decimal.Equal(decimal.RequireFromString("10.00")))
}

func TestProcess_MissingSignatureRejected(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"completed","payload":{"transactionId":"tx-2"}}`)

	p, store, _ := newProcessor()

	_, err := p.Process("req-1", body, "")
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Empty(t, store.created)
}

func TestProcess_BadSignatureRejected(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"completed","payload":{"transactionId":"tx-2"}}`)

	p, store, _ := newProcessor()

	_, err := p.Process("req-1", body, sign("wrong-secret", body))
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Empty(t, store.created)
}

func TestProcess_NoBody(t *testing.T) {
	p, _, _ := newProcessor()

	_, err := p.Process("req-1", nil, "whatever")
	assert.ErrorIs(t, err, ErrNoBody)
}

func TestProcess_NoSecretConfigured(t *testing.T) {
	store := newFakeStore()
	p := NewWebhookProcessor("", store, &fakeMailer{})

	body := []byte(`{"eventType":"COLLECTION"}`)
	_, err := p.Process("req-1", body, sign(testSecret, body))
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestProcess_UnknownEventTypeIgnored(t *testing.T) {
	body := []byte(`{"eventType":"PING","status":"completed","payload":{"transactionId":"tx-3"}}`)

	p, store, _ := newProcessor()

	result, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)
	assert.True(t, result.Ignored)
	assert.Empty(t, store.created)
}

func TestProcess_AbsentAmountStaysNull(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"pending","payload":{"transactionId":"tx-4","entityId":"ent-1"}}`)

	p, store, _ := newProcessor()

	_, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.False(t, store.created[0].Amount.Valid)
}

func TestAssociate_MetadataUserIDWins(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"pending","payload":{"transactionId":"tx-5","metadata":{"userId":7},"paymentLink":{"externalId":"99"},"entityId":"ent-1"}}`)

	p, store, _ := newProcessor()
	store.users[7] = &models.User{Email: "seven@example.com"}
	store.users[7].ID = 7
	store.users[99] = &models.User{Email: "ninetynine@example.com"}
	store.users[99].ID = 99

	_, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)

	txn := store.created[0]
	require.NotNil(t, txn.UserID)
	assert.Equal(t, uint(7), *txn.UserID)
	assert.Equal(t, models.UserRefLocal, txn.UserRefKind)
	assert.Equal(t, "7", txn.UserRefValue)
}

func TestAssociate_FractionalMetadataUserIDRejected(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"pending","payload":{"transactionId":"tx-5b","metadata":{"userId":7.9},"entityId":"ent-unknown"}}`)

	p, store, _ := newProcessor()
	store.users[7] = &models.User{Email: "seven@example.com"}
	store.users[7].ID = 7

	_, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)

	// 7.9 is not an id; it must not truncate down to user 7.
	txn := store.created[0]
	assert.Nil(t, txn.UserID)
	assert.Equal(t, models.UserRefExternal, txn.UserRefKind)
	assert.Equal(t, "ent-unknown", txn.UserRefValue)
}

func TestAssociate_PaymentLinkExternalID(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"pending","payload":{"transactionId":"tx-6","paymentLink":{"externalId":"42"},"entityId":"ent-1"}}`)

	p, store, _ := newProcessor()
	store.users[42] = &models.User{Email: "fortytwo@example.com"}
	store.users[42].ID = 42

	_, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)

	txn := store.created[0]
	require.NotNil(t, txn.UserID)
	assert.Equal(t, uint(42), *txn.UserID)
	assert.Equal(t, models.UserRefLocal, txn.UserRefKind)
	assert.Equal(t, "42", txn.UserRefValue)
}

func TestAssociate_EntityWalletFallback(t *testing.T) {
	body := []byte(`{"eventType":"WITHDRAWAL","status":"pending","payload":{"transactionId":"tx-7","entityId":"ent-55","walletId":"wallet-55"}}`)

	p, store, _ := newProcessor()
	user := &models.User{Email: "entity@example.com", EntityID: "ent-55"}
	user.ID = 55
	store.byEntity["ent-55"] = user

	_, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)

	txn := store.created[0]
	require.NotNil(t, txn.UserID)
	assert.Equal(t, uint(55), *txn.UserID)
	assert.Equal(t, models.UserRefLocal, txn.UserRefKind)
	assert.Equal(t, "55", txn.UserRefValue)
}

func TestAssociate_UnresolvedKeepsExternalRef(t *testing.T) {
	body := []byte(`{"eventType":"WITHDRAWAL","status":"pending","payload":{"transactionId":"tx-8","entityId":"ent-unknown"}}`)

	p, store, _ := newProcessor()

	result, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)
	assert.True(t, result.Created)

	txn := store.created[0]
	assert.Nil(t, txn.UserID)
	assert.Equal(t, models.UserRefExternal, txn.UserRefKind)
	assert.Equal(t, "ent-unknown", txn.UserRefValue)
}

func TestNotify_UserAndPartnerEmails(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"completed","payload":{"transactionId":"tx-9","amount":25,"metadata":{"userId":3}}}`)

	p, store, mail := newProcessor()
	user := &models.User{Email: "user@example.com", PartnerCode: "P1"}
	user.ID = 3
	store.users[3] = user
	store.partners["P1"] = &models.Partner{PartnerCode: "P1", Email: "partner@example.com"}

	result, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)
	assert.True(t, result.Created)

	assert.Equal(t, []string{"user@example.com", "partner@example.com"}, mail.sent)
}

func TestNotify_MailFailureDoesNotFailWebhook(t *testing.T) {
	body := []byte(`{"eventType":"COLLECTION","status":"successful","payload":{"transactionId":"tx-10","metadata":{"userId":3}}}`)

	p, store, mail := newProcessor()
	mail.fail = true
	user := &models.User{Email: "user@example.com", PartnerCode: "P1"}
	user.ID = 3
	store.users[3] = user
	store.partners["P1"] = &models.Partner{PartnerCode: "P1", Email: "partner@example.com"}

	result, err := p.Process("req-1", body, sign(testSecret, body))
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Len(t, mail.sent, 2)
}

func TestNotify_SkippedForNonSuccessOrNoUser(t *testing.T) {
	p, store, mail := newProcessor()

	pending := []byte(`{"eventType":"COLLECTION","status":"pending","payload":{"transactionId":"tx-11","metadata":{"userId":3}}}`)
	user := &models.User{Email: "user@example.com"}
	user.ID = 3
	store.users[3] = user

	_, err := p.Process("req-1", pending, sign(testSecret, pending))
	require.NoError(t, err)
	assert.Empty(t, mail.sent)

	orphan := []byte(`{"eventType":"COLLECTION","status":"completed","payload":{"transactionId":"tx-12","entityId":"ent-none"}}`)
	_, err = p.Process("req-2", orphan, sign(testSecret, orphan))
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}
