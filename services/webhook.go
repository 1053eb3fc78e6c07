package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"orionpay/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Store is the persistence surface the webhook pipeline needs. Lookups
// return (nil, nil) when nothing matches.
type Store interface {
	TransactionByProviderID(txID string) (*models.Transaction, error)
	CreateTransaction(txn *models.Transaction) error
	SaveTransaction(txn *models.Transaction) error
	UserByID(id uint) (*models.User, error)
	UserByProviderIDs(entityID, walletID string) (*models.User, error)
	PartnerByCode(code string) (*models.Partner, error)
}

// Mailer is the notification side channel. Failures are logged and
// swallowed; delivery is best effort.
type Mailer interface {
	SendTransactionReceipt(to string, txn *models.Transaction) error
}

var (
	ErrNoBody       = errors.New("missing request body")
	ErrNoSecret     = errors.New("webhook secret not configured")
	ErrBadSignature = errors.New("invalid signature")
)

// WebhookProcessor handles one CentryOS webhook delivery end to end:
// verify, classify, normalize, associate, upsert, notify.
type WebhookProcessor struct {
	Secret string
	Store  Store
	Mailer Mailer
}

func NewWebhookProcessor(secret string, store Store, mailer Mailer) *WebhookProcessor {
	return &WebhookProcessor{Secret: secret, Store: store, Mailer: mailer}
}

// WebhookResult describes the terminal state of one delivery.
type WebhookResult struct {
	Ignored bool
	Created bool
}

// Event is the webhook envelope. Unknown fields survive in the raw body,
// which is stored verbatim.
type Event struct {
	EventType string       `json:"eventType"`
	Status    string       `json:"status"`
	Payload   EventPayload `json:"payload"`
}

type EventPayload struct {
	Entry         string                 `json:"entry"`
	Amount        models.FlexibleDecimal `json:"amount"`
	Method        string                 `json:"method"`
	Summary       string                 `json:"summary"`
	Currency      string                 `json:"currency"`
	EntityID      string                 `json:"entityId"`
	WalletID      string                 `json:"walletId"`
	Timestamp     models.FlexibleString  `json:"timestamp"`
	EntityType    string                 `json:"entityType"`
	Description   string                 `json:"description"`
	TransactionID string                 `json:"transactionId"`
	PaymentLink   *PaymentLink           `json:"paymentLink"`
	FeeCharged    models.FlexibleString  `json:"feeCharged"`
	Metadata      map[string]any         `json:"metadata"`
}

type PaymentLink struct {
	ID         string                `json:"id"`
	Token      string                `json:"token"`
	ExternalID models.FlexibleString `json:"externalId"`
	CustomData map[string]any        `json:"customData"`
}

// Process runs the full pipeline on a raw delivery. Sentinel errors mark
// the rejection states; anything else is an internal failure.
func (p *WebhookProcessor) Process(requestID string, rawBody []byte, signature string) (*WebhookResult, error) {
	log := logrus.WithField("requestId", requestID)

	if err := p.verifySignature(rawBody, signature, log); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}

	if event.EventType != models.EventCollection && event.EventType != models.EventWithdrawal {
		log.WithField("eventType", event.EventType).Info("ignoring unknown event type")
		return &WebhookResult{Ignored: true}, nil
	}

	txn := normalize(&event, rawBody)
	user := p.associate(&event, txn, log)

	created, err := p.upsert(txn)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"eventType":     event.EventType,
		"transactionId": event.Payload.TransactionID,
		"created":       created,
	}).Info("webhook processed")

	p.notify(txn, user, log)

	return &WebhookResult{Created: created}, nil
}

// verifySignature checks hex(HMAC-SHA512(secret, rawBody)) against the
// supplied header in constant time. Fails closed on every missing piece.
func (p *WebhookProcessor) verifySignature(rawBody []byte, signature string, log *logrus.Entry) error {
	if len(rawBody) == 0 {
		log.Warn("webhook rejected: empty body")
		return ErrNoBody
	}
	if p.Secret == "" {
		log.Error("webhook rejected: CENTRYOS_WEBHOOK_SECRET not configured")
		return ErrNoSecret
	}
	if signature == "" {
		log.WithField("signaturePresent", false).Warn("webhook rejected: missing signature")
		return ErrBadSignature
	}

	mac := hmac.New(sha512.New, []byte(p.Secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		log.WithField("signaturePresent", true).Warn("webhook rejected: signature mismatch")
		return ErrBadSignature
	}

	return nil
}

// normalize maps the provider payload onto the stored transaction shape.
// The raw body is always retained verbatim.
func normalize(event *Event, rawBody []byte) *models.Transaction {
	payload := &event.Payload

	txn := &models.Transaction{
		EventType:   event.EventType,
		Status:      event.Status,
		Entry:       payload.Entry,
		Amount:      payload.Amount.NullDecimal,
		Method:      payload.Method,
		Summary:     payload.Summary,
		Currency:    payload.Currency,
		EntityID:    payload.EntityID,
		WalletID:    payload.WalletID,
		EntityType:  payload.EntityType,
		Timestamp:   payload.Timestamp.ToTime(),
		Description: payload.Description,
		FeeCharged:  payload.FeeCharged.String(),
		RawPayload:  datatypes.JSON(rawBody),
	}

	if payload.TransactionID != "" {
		id := payload.TransactionID
		txn.TransactionID = &id
	}

	if payload.PaymentLink != nil {
		if link, err := json.Marshal(payload.PaymentLink); err == nil {
			txn.PaymentLink = datatypes.JSON(link)
		}
	}

	if len(payload.Metadata) > 0 {
		if meta, err := json.Marshal(payload.Metadata); err == nil {
			txn.Metadata = datatypes.JSON(meta)
		}
	}

	return txn
}

// associate resolves the local account, stopping at the first match:
// explicit metadata userId, then paymentLink externalId, then a lookup by
// provider entity/wallet id. Failure to resolve never fails ingestion.
func (p *WebhookProcessor) associate(event *Event, txn *models.Transaction, log *logrus.Entry) *models.User {
	payload := &event.Payload

	if id, ok := metadataUserID(payload.Metadata); ok {
		txn.UserRefKind = models.UserRefLocal
		txn.UserRefValue = strconv.FormatUint(uint64(id), 10)
		if user, err := p.Store.UserByID(id); err == nil && user != nil {
			txn.UserID = &user.ID
			return user
		}
		log.WithField("userId", id).Warn("metadata userId did not match a local account")
		return nil
	}

	if payload.PaymentLink != nil && payload.PaymentLink.ExternalID != "" {
		// externalId is the local primary key handed over at
		// link-creation time.
		txn.UserRefKind = models.UserRefLocal
		txn.UserRefValue = payload.PaymentLink.ExternalID.String()
		if id, err := payload.PaymentLink.ExternalID.ToInt64(); err == nil && id > 0 {
			if user, err := p.Store.UserByID(uint(id)); err == nil && user != nil {
				txn.UserID = &user.ID
				return user
			}
		}
		log.WithField("externalId", payload.PaymentLink.ExternalID).Warn("paymentLink externalId did not match a local account")
		return nil
	}

	if user, err := p.Store.UserByProviderIDs(payload.EntityID, payload.WalletID); err == nil && user != nil {
		txn.UserRefKind = models.UserRefLocal
		txn.UserRefValue = strconv.FormatUint(uint64(user.ID), 10)
		txn.UserID = &user.ID
		return user
	}

	if payload.EntityID != "" {
		txn.UserRefKind = models.UserRefExternal
		txn.UserRefValue = payload.EntityID
	}

	log.WithFields(logrus.Fields{
		"entityId": payload.EntityID,
		"walletId": payload.WalletID,
	}).Warn("transaction could not be associated to a user")

	return nil
}

func metadataUserID(metadata map[string]any) (uint, bool) {
	raw, ok := metadata["userId"]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		// JSON numbers arrive as float64; a fractional value is not an
		// id and must not be truncated into one.
		if v > 0 && v == math.Trunc(v) {
			return uint(v), true
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return uint(id), true
		}
	}

	return 0, false
}

// upsert inserts the transaction or, when the provider transaction id was
// seen before, updates the mutable fields only. Identity fields are never
// overwritten on redelivery.
func (p *WebhookProcessor) upsert(txn *models.Transaction) (bool, error) {
	if txn.TransactionID == nil {
		// No idempotency key, nothing to deduplicate against.
		return true, p.Store.CreateTransaction(txn)
	}

	existing, err := p.Store.TransactionByProviderID(*txn.TransactionID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, p.Store.CreateTransaction(txn)
	}

	existing.Status = txn.Status
	existing.Summary = txn.Summary
	existing.Description = txn.Description
	existing.RawPayload = txn.RawPayload

	*txn = *existing

	return false, p.Store.SaveTransaction(existing)
}

// notify emails the user and, when the account carries a partner code, the
// partner. Each send fails independently and never the webhook.
func (p *WebhookProcessor) notify(txn *models.Transaction, user *models.User, log *logrus.Entry) {
	if !txn.IsSuccess() || user == nil {
		return
	}

	if err := p.Mailer.SendTransactionReceipt(user.Email, txn); err != nil {
		log.WithError(err).WithField("to", user.Email).Error("failed to send transaction email")
	}

	if user.PartnerCode == "" {
		return
	}

	partner, err := p.Store.PartnerByCode(user.PartnerCode)
	if err != nil || partner == nil || partner.Email == "" {
		log.WithField("partnerCode", user.PartnerCode).Warn("partner email not found for notification")
		return
	}

	if err := p.Mailer.SendTransactionReceipt(partner.Email, txn); err != nil {
		log.WithError(err).WithField("to", partner.Email).Error("failed to send partner transaction email")
	}
}
