package helpers

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
)

// AppError carries an HTTP status alongside a safe client message. The
// wrapped error holds the detail and is only exposed outside production.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(message string) *AppError {
	return &AppError{Status: fiber.StatusBadRequest, Message: message}
}

func Auth(message string) *AppError {
	return &AppError{Status: fiber.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Status: fiber.StatusForbidden, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: fiber.StatusNotFound, Message: message}
}

func Integration(message string, err error) *AppError {
	return &AppError{Status: fiber.StatusInternalServerError, Message: message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Status: fiber.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// Respond translates an error into a JSON response at the controller
// boundary. Unknown error types become a generic 500.
func Respond(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	body := fiber.Map{
		"success": false,
		"message": appErr.Message,
	}
	if appErr.Err != nil && os.Getenv("APP_ENV") == "development" {
		body["error"] = appErr.Err.Error()
	}

	return c.Status(appErr.Status).JSON(body)
}
