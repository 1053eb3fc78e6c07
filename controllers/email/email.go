package email

import (
	"time"

	"orionpay/database"
	"orionpay/helpers"
	"orionpay/mailer"
	"orionpay/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Mailer *mailer.SMTP
}

func NewHandler(m *mailer.SMTP) *Handler {
	return &Handler{Mailer: m}
}

type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

func (h *Handler) Send(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.To == "" || req.Subject == "" || req.Text == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing required fields: to, subject, text")
	}

	if err := h.Mailer.Send(req.To, req.Subject, req.Text, req.HTML); err != nil {
		return helpers.Respond(c, helpers.Integration("Failed to send email", err))
	}

	return helpers.JSONSuccess(c, "Email sent successfully", nil)
}

type OTPRequest struct {
	Email string `json:"email"`
}

// SendOTP replaces any pending codes for the address with a fresh
// 6-digit code valid for 5 minutes.
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing required field: email")
	}

	if err := database.DB.Unscoped().Where("email = ?", req.Email).Delete(&models.OTP{}).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	code, err := helpers.GenerateOTPCode()
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	otp := models.OTP{
		Email:     req.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	if err := database.DB.Create(&otp).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	if err := h.Mailer.SendOTP(req.Email, code); err != nil {
		logrus.WithError(err).WithField("to", req.Email).Error("failed to send OTP email")
		return helpers.Respond(c, helpers.Integration("Failed to send OTP", err))
	}

	return helpers.JSONSuccess(c, "OTP sent successfully", nil)
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP checks the code and consumes it on success or expiry.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" || req.OTP == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Email and OTP are required")
	}

	var otp models.OTP
	if err := database.DB.Where("email = ? AND code = ?", req.Email, req.OTP).First(&otp).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid OTP")
	}

	if time.Now().After(otp.ExpiresAt) {
		database.DB.Unscoped().Delete(&otp)
		return helpers.JSONError(c, fiber.StatusBadRequest, "OTP expired")
	}

	database.DB.Unscoped().Delete(&otp)
	return helpers.JSONSuccess(c, "OTP verified successfully", nil)
}

type NotificationRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) Notification(c *fiber.Ctx) error {
	var req NotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" || req.Subject == "" || req.Message == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing required fields: email, subject, message")
	}

	if err := h.Mailer.SendNotification(req.Email, req.Subject, req.Message); err != nil {
		return helpers.Respond(c, helpers.Integration("Failed to send notification", err))
	}

	return helpers.JSONSuccess(c, "Notification sent successfully", nil)
}
