package partner

import (
	"orionpay/database"
	"orionpay/helpers"
	"orionpay/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type AddRequest struct {
	PartnerCode string `json:"partnerCode"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Add registers a partner account. Admin only.
func Add(c *fiber.Ctx) error {
	var req AddRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.PartnerCode == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing required fields: partnerCode, name, email, password")
	}

	var existing models.Partner
	if err := database.DB.Where("partner_code = ?", req.PartnerCode).First(&existing).Error; err == nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Partner code already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	partner := models.Partner{
		PartnerCode:  req.PartnerCode,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := database.DB.Create(&partner).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return helpers.JSONCreated(c, "Partner created successfully", fiber.Map{
		"id":          partner.ID,
		"partnerCode": partner.PartnerCode,
		"name":        partner.Name,
		"email":       partner.Email,
		"createdAt":   partner.CreatedAt,
	})
}

type LoginRequest struct {
	PartnerCode string `json:"partnerCode"`
	Password    string `json:"password"`
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.PartnerCode == "" || req.Password == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing partner code or password")
	}

	var partner models.Partner
	if err := database.DB.Where("partner_code = ?", req.PartnerCode).First(&partner).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid partner code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(partner.PasswordHash), []byte(req.Password)); err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid password")
	}

	token, err := helpers.GeneratePartnerToken(partner.ID, partner.PartnerCode)
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"partner": fiber.Map{
			"id":          partner.ID,
			"partnerCode": partner.PartnerCode,
			"name":        partner.Name,
			"email":       partner.Email,
		},
	})
}

// Users lists the accounts referred by the authenticated partner.
func Users(c *fiber.Ctx) error {
	partnerCode, _ := c.Locals("partnerCode").(string)

	var users []models.User
	if err := database.DB.Where("partner_code = ?", partnerCode).Order("created_at DESC").Find(&users).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"id":         u.ID,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"email":      u.Email,
			"created_at": u.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   out,
		"total":   len(out),
	})
}

// Transactions lists transactions belonging to the partner's users.
func Transactions(c *fiber.Ctx) error {
	partnerCode, _ := c.Locals("partnerCode").(string)

	var userIDs []uint
	if err := database.DB.Model(&models.User{}).Where("partner_code = ?", partnerCode).Pluck("id", &userIDs).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	if len(userIDs) == 0 {
		return c.JSON(fiber.Map{
			"success":      true,
			"transactions": []models.Transaction{},
			"total":        0,
		})
	}

	var transactions []models.Transaction
	if err := database.DB.Where("user_id IN ?", userIDs).Order("created_at DESC").Find(&transactions).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": transactions,
		"total":        len(transactions),
	})
}
