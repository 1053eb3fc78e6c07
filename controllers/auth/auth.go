package auth

import (
	"orionpay/database"
	"orionpay/helpers"
	"orionpay/models"
	"orionpay/providers/centryos"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Client *centryos.Client
}

func NewHandler(client *centryos.Client) *Handler {
	return &Handler{Client: client}
}

type SignupRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PartnerCode string `json:"partnerCode"`
}

// Signup creates the provider account and wallet first; the local row is
// only written once onboarding succeeds.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing required fields")
	}

	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	// The provider identifier has to exist before the row does, so a
	// throwaway one stands in for the primary key.
	identifier := uuid.New().String()[:13]

	onboarding, err := h.Client.CreateUserAndWallet(c.Context(), centryos.AccountParams{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Identifier: identifier,
	})
	if err != nil {
		logrus.WithError(err).Error("signup failed during provider onboarding")
		return helpers.Respond(c, helpers.Integration("Signup failed: "+err.Error(), err))
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		PartnerCode:  req.PartnerCode,
		Role:         models.RoleUser,
		EntityID:     onboarding.EntityID,
		WalletID:     onboarding.WalletID,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	token, err := helpers.GenerateUserToken(user.ID, "")
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return helpers.JSONCreated(c, "User registered successfully", fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":               user.ID,
			"email":            user.Email,
			"firstName":        user.FirstName,
			"lastName":         user.LastName,
			"centryosEntityId": user.EntityID,
			"centryosWalletId": user.WalletID,
			"partnerCode":      user.PartnerCode,
		},
	})
}

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PartnerCode string `json:"partnerCode"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" || req.Password == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing credentials")
	}

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	// Partner isolation: a partner-branded login may not cross partners.
	if req.PartnerCode != "" && user.PartnerCode != req.PartnerCode {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid partner code")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := helpers.GenerateUserToken(user.ID, "")
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":          user.ID,
			"email":       user.Email,
			"partnerCode": user.PartnerCode,
		},
	})
}

func (h *Handler) AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Invalid JSON body")
	}

	if req.Email == "" || req.Password == "" {
		return helpers.JSONError(c, fiber.StatusBadRequest, "Missing credentials")
	}

	var user models.User
	if err := database.DB.Where("email = ? AND role = ?", req.Email, models.RoleAdmin).First(&user).Error; err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return helpers.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := helpers.GenerateUserToken(user.ID, user.Role)
	if err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func paginate(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// AdminPartners lists partner accounts, newest first.
func (h *Handler) AdminPartners(c *fiber.Ctx) error {
	limit, offset := paginate(c)

	var partners []models.Partner
	if err := database.DB.Order("created_at DESC").Limit(limit).Offset(offset).Find(&partners).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	var total int64
	database.DB.Model(&models.Partner{}).Count(&total)

	return c.JSON(fiber.Map{
		"success":  true,
		"partners": partners,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// AdminUsers lists user accounts with their partner, newest first.
func (h *Handler) AdminUsers(c *fiber.Ctx) error {
	limit, offset := paginate(c)

	var users []models.User
	if err := database.DB.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return helpers.Respond(c, helpers.Internal(err))
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		entry := fiber.Map{
			"id":           u.ID,
			"first_name":   u.FirstName,
			"last_name":    u.LastName,
			"email":        u.Email,
			"partner_code": u.PartnerCode,
			"created_at":   u.CreatedAt,
		}
		if u.PartnerCode != "" {
			var partner models.Partner
			if err := database.DB.Where("partner_code = ?", u.PartnerCode).First(&partner).Error; err == nil {
				entry["partner"] = fiber.Map{
					"name":         partner.Name,
					"partner_code": partner.PartnerCode,
				}
			}
		}
		out = append(out, entry)
	}

	var total int64
	database.DB.Model(&models.User{}).Count(&total)

	return c.JSON(fiber.Map{
		"success": true,
		"users":   out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
