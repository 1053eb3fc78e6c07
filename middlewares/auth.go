package middlewares

import (
	"strings"

	"orionpay/helpers"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// UserAuth requires a valid user session token and stores the user id and
// role in locals.
func UserAuth(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return helpers.Respond(c, helpers.Auth("Missing authorization token"))
	}

	claims, err := helpers.ParseToken(token)
	if err != nil {
		return helpers.Respond(c, helpers.Auth("Invalid or expired token"))
	}

	userID, ok := claims["userId"].(float64)
	if !ok {
		return helpers.Respond(c, helpers.Auth("Invalid token claims"))
	}

	c.Locals("userId", uint(userID))
	if role, ok := claims["role"].(string); ok {
		c.Locals("role", role)
	}

	return c.Next()
}

// AdminOnly must run after UserAuth.
func AdminOnly(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != "ADMIN" {
		return helpers.Respond(c, helpers.Forbidden("Access denied. Admin only."))
	}
	return c.Next()
}

// PartnerAuth requires a partner-scoped session token.
func PartnerAuth(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return helpers.Respond(c, helpers.Auth("Missing authorization token"))
	}

	claims, err := helpers.ParseToken(token)
	if err != nil {
		return helpers.Respond(c, helpers.Auth("Invalid or expired token"))
	}

	partnerID, ok := claims["partnerId"].(float64)
	if !ok {
		return helpers.Respond(c, helpers.Auth("Invalid partner token"))
	}
	partnerCode, _ := claims["partnerCode"].(string)

	c.Locals("partnerId", uint(partnerID))
	c.Locals("partnerCode", partnerCode)

	return c.Next()
}
