package routes

import (
	"os"

	"orionpay/controllers/auth"
	"orionpay/controllers/email"
	"orionpay/controllers/partner"
	"orionpay/controllers/payment"
	"orionpay/controllers/webhook"
	"orionpay/database"
	"orionpay/mailer"
	"orionpay/middlewares"
	"orionpay/providers/centryos"
	"orionpay/services"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	client := centryos.NewClientFromEnv()
	smtp := mailer.NewFromEnv()
	store := database.NewStore(database.DB)
	processor := services.NewWebhookProcessor(os.Getenv("CENTRYOS_WEBHOOK_SECRET"), store, smtp)

	authHandler := auth.NewHandler(client)
	paymentHandler := payment.NewHandler(client)
	emailHandler := email.NewHandler(smtp)
	webhookHandler := webhook.NewHandler(processor)

	authroutes := app.Group("/auth")
	authroutes.Post("/signup", authHandler.Signup)
	authroutes.Post("/login", authHandler.Login)
	authroutes.Post("/admin/login", authHandler.AdminLogin)
	authroutes.Get("/admin/partners", middlewares.UserAuth, middlewares.AdminOnly, authHandler.AdminPartners)
	authroutes.Get("/admin/users", middlewares.UserAuth, middlewares.AdminOnly, authHandler.AdminUsers)

	partnerroutes := app.Group("/partners")
	partnerroutes.Post("/add", middlewares.UserAuth, middlewares.AdminOnly, partner.Add)
	partnerroutes.Post("/login", partner.Login)
	partnerroutes.Get("/users", middlewares.PartnerAuth, partner.Users)
	partnerroutes.Get("/transactions", middlewares.PartnerAuth, partner.Transactions)

	paymentroutes := app.Group("/payments")
	paymentroutes.Post("/payin", middlewares.UserAuth, paymentHandler.PayIn)
	paymentroutes.Post("/payout", middlewares.UserAuth, paymentHandler.PayOut)
	paymentroutes.Get("/transactions", middlewares.UserAuth, middlewares.AdminOnly, paymentHandler.Transactions)
	paymentroutes.Get("/my-transactions", middlewares.UserAuth, paymentHandler.MyTransactions)

	emailroutes := app.Group("/email")
	emailroutes.Post("/send", emailHandler.Send)
	emailroutes.Post("/otp", emailHandler.SendOTP)
	emailroutes.Post("/verify-otp", emailHandler.VerifyOTP)
	emailroutes.Post("/notification", emailHandler.Notification)

	app.Post("/webhooks/centryos", webhookHandler.HandleCentryOS)
}
