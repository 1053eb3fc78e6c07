package webhook

import (
	"errors"

	"orionpay/helpers"
	"orionpay/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Processor *services.WebhookProcessor
}

func NewHandler(processor *services.WebhookProcessor) *Handler {
	return &Handler{Processor: processor}
}

// HandleCentryOS receives provider webhook deliveries. The exact request
// bytes feed the HMAC check, so the body is never re-encoded here.
func (h *Handler) HandleCentryOS(c *fiber.Ctx) error {
	requestID := uuid.New().String()

	result, err := h.Processor.Process(requestID, c.Body(), c.Get("signature"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoBody):
			return helpers.JSONError(c, fiber.StatusBadRequest, "Missing request body")
		case errors.Is(err, services.ErrNoSecret):
			return helpers.JSONError(c, fiber.StatusInternalServerError, "Webhook secret not configured")
		case errors.Is(err, services.ErrBadSignature):
			return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid signature")
		}

		logrus.WithField("requestId", requestID).WithError(err).Error("webhook processing failed")
		return helpers.JSONError(c, fiber.StatusInternalServerError, "Webhook processing failed")
	}

	if result.Ignored {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"ignored": true,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"created": result.Created,
	})
}
