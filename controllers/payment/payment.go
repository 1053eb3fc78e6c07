package payment

import (
	"encoding/json"
	"math"

	"orionpay/database"
	"orionpay/helpers"
	"orionpay/models"
	"orionpay/providers/centryos"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Client *centryos.Client
}

func NewHandler(client *centryos.Client) *Handler {
	return &Handler{Client: client}
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, _ := c.Locals("userId").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type PayInRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Name          string  `json:"name"`
	ExpiredAt     string  `json:"expiredAt"`
	CustomUrlPath string  `json:"customUrlPath"`
}

// PayIn creates a provider-hosted collection link for the caller.
func (h *Handler) PayIn(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return helpers.Respond(c, helpers.NotFound("User not found"))
	}

	var req PayInRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Amount == 0 {
		req.Amount = 100
	}

	link, err := h.Client.CreatePaymentLink(c.Context(), user.ID, user.Email, centryos.PaymentDetails{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Name:          req.Name,
		ExpiredAt:     req.ExpiredAt,
		CustomUrlPath: req.CustomUrlPath,
	})
	if err != nil {
		logrus.WithError(err).Error("payin failed")
		return helpers.Respond(c, helpers.Integration("Failed to create payment link", err))
	}

	return helpers.JSONCreated(c, "Payment link created successfully", fiber.Map{
		"paymentLink": link,
	})
}

type PayOutRequest struct {
	Amount       *float64 `json:"amount"`
	GameName     string   `json:"gameName"`
	GameUsername string   `json:"gameUsername"`
}

// PayOut creates a withdrawal link. Amount is required and has a $10
// floor.
func (h *Handler) PayOut(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return helpers.Respond(c, helpers.NotFound("User not found"))
	}

	var req PayOutRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Amount == nil {
		return helpers.Respond(c, helpers.Validation("Amount is required for payout"))
	}
	amount := *req.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return helpers.Respond(c, helpers.Validation("Amount must be a valid number"))
	}
	if amount < 10 {
		return helpers.Respond(c, helpers.Validation("Minimum withdrawal amount is $10"))
	}

	link, err := h.Client.CreatePayoutLink(c.Context(), centryos.PayoutParty{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, amount, req.GameName, req.GameUsername)
	if err != nil {
		logrus.WithError(err).Error("payout failed")
		return helpers.Respond(c, helpers.Integration("Failed to create payout link", err))
	}

	return helpers.JSONCreated(c, "Payout link created successfully", fiber.Map{
		"paymentLink": link,
	})
}

// gameDetails pulls the game name/username a checkout form collected.
// COLLECTION events carry them in the payload metadata, WITHDRAWAL events
// in the payment link's customData.
func gameDetails(txn *models.Transaction) (string, string) {
	pick := func(m map[string]any) (string, string) {
		name, _ := m["Game Name"].(string)
		username, _ := m["Game Username"].(string)
		return name, username
	}

	switch txn.EventType {
	case models.EventCollection:
		var raw struct {
			Payload struct {
				Metadata map[string]any `json:"metadata"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(txn.RawPayload, &raw); err == nil && raw.Payload.Metadata != nil {
			return pick(raw.Payload.Metadata)
		}
	case models.EventWithdrawal:
		var link struct {
			CustomData map[string]any `json:"customData"`
		}
		if err := json.Unmarshal(txn.PaymentLink, &link); err == nil && link.CustomData != nil {
			return pick(link.CustomData)
		}
	}

	return "", ""
}

func enrich(txn *models.Transaction) fiber.Map {
	gameName, gameUsername := gameDetails(txn)

	entry := fiber.Map{
		"id":            txn.ID,
		"transactionId": txn.TransactionID,
		"userId":        txn.UserID,
		"userRefKind":   txn.UserRefKind,
		"userRefValue":  txn.UserRefValue,
		"method":        txn.Method,
		"amount":        txn.Amount,
		"status":        txn.Status,
		"eventType":     txn.EventType,
		"createdAt":     txn.CreatedAt,
		"rawPayload":    txn.RawPayload,
		"paymentLink":   txn.PaymentLink,
		"gameName":      gameName,
		"gameUsername":  gameUsername,
	}

	if txn.UserID != nil {
		var user models.User
		if err := database.DB.First(&user, *txn.UserID).Error; err == nil {
			entry["user"] = fiber.Map{
				"id":         user.ID,
				"email":      user.Email,
				"first_name": user.FirstName,
				"last_name":  user.LastName,
			}
		}
	}

	return entry
}

// Transactions is the admin listing with optional eventType filter.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	eventType := c.Query("eventType")

	query := database.DB.Model(&models.Transaction{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&transactions).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	out := make([]fiber.Map, 0, len(transactions))
	for i := range transactions {
		out = append(out, enrich(&transactions[i]))
	}

	var total int64
	countQuery := database.DB.Model(&models.Transaction{})
	if eventType != "" {
		countQuery = countQuery.Where("event_type = ?", eventType)
	}
	countQuery.Count(&total)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// MyTransactions lists the caller's own transactions.
func (h *Handler) MyTransactions(c *fiber.Ctx) error {
	userID, _ := c.Locals("userId").(uint)

	var transactions []models.Transaction
	if err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&transactions).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": transactions,
		"total":        len(transactions),
	})
}
