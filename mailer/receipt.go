package mailer

import (
	"fmt"
	"time"

	"orionpay/models"
)

// SendTransactionReceipt emails a confirmation for a completed
// transaction. This is the shape consumed by the webhook dispatcher.
func (m *SMTP) SendTransactionReceipt(to string, txn *models.Transaction) error {
	amount := "-"
	if txn.Amount.Valid {
		amount = txn.Amount.Decimal.StringFixed(2)
	}

	txnID := "-"
	if txn.TransactionID != nil {
		txnID = *txn.TransactionID
	}

	when := time.Now().UTC()
	if txn.Timestamp != nil {
		when = *txn.Timestamp
	}

	subject := fmt.Sprintf("Transaction Confirmation - %s", txnID)

	text := fmt.Sprintf(
		"Your %s of %s %s is %s.\nTransaction ID: %s\nDate: %s\n",
		txn.EventType, amount, txn.Currency, txn.Status, txnID, when.Format(time.RFC1123),
	)

	html := fmt.Sprintf(`<h2>Transaction Confirmation</h2>
<table>
  <tr><td>Type</td><td>%s</td></tr>
  <tr><td>Amount</td><td>%s %s</td></tr>
  <tr><td>Status</td><td>%s</td></tr>
  <tr><td>Transaction ID</td><td>%s</td></tr>
  <tr><td>Date</td><td>%s</td></tr>
</table>`,
		txn.EventType, amount, txn.Currency, txn.Status, txnID, when.Format(time.RFC1123),
	)

	return m.Send(to, subject, text, html)
}
