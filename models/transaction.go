package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventCollection = "COLLECTION"
	EventWithdrawal = "WITHDRAWAL"
)

// User reference kinds. "local" means UserRefValue is a local primary key,
// "external" means it is a provider entity id we could not resolve.
const (
	UserRefLocal    = "local"
	UserRefExternal = "external"
)

// Transaction is one payment-provider event as delivered by the CentryOS
// webhook. TransactionID is the provider's id and is the idempotency key:
// redelivery updates status/summary/description/rawPayload only.
type Transaction struct {
	gorm.Model

	EventType string              `gorm:"size:32;index" json:"event_type"`
	Status    string              `gorm:"size:32" json:"status"`
	Entry     string              `gorm:"size:16" json:"entry"`
	Amount    decimal.NullDecimal `gorm:"type:numeric" json:"amount"`
	Method    string              `gorm:"size:32" json:"method"`
	Summary   string              `gorm:"size:255" json:"summary"`
	Currency  string              `gorm:"size:8" json:"currency"`

	EntityID   string     `gorm:"size:64;index" json:"entity_id"`
	WalletID   string     `gorm:"size:64;index" json:"wallet_id"`
	EntityType string     `gorm:"size:32" json:"entity_type"`
	Timestamp  *time.Time `json:"timestamp"`

	Description   string  `gorm:"type:text" json:"description"`
	TransactionID *string `gorm:"size:64;uniqueIndex" json:"transaction_id"`

	PaymentLink datatypes.JSON `json:"payment_link"`
	FeeCharged  string         `gorm:"size:32" json:"fee_charged"`
	Metadata    datatypes.JSON `json:"metadata"`

	// Full original webhook body, kept verbatim for audit and replay.
	RawPayload datatypes.JSON `json:"raw_payload"`

	// Set only when a local account actually resolved.
	UserID *uint `gorm:"index" json:"user_id"`

	// Tagged association reference, resolved once at ingestion time.
	UserRefKind  string `gorm:"size:16" json:"user_ref_kind"`
	UserRefValue string `gorm:"size:64" json:"user_ref_value"`
}

// IsSuccess reports whether the provider status counts as a completed
// payment. The provider is not consistent about the word it uses.
func (t *Transaction) IsSuccess() bool {
	return IsSuccessStatus(t.Status)
}

func IsSuccessStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "success", "successful":
		return true
	}
	return false
}
