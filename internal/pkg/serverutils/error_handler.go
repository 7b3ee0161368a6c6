package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// HttpError carries an HTTP status code with a user-facing message.
// Services return it when they want to control the response status.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	return e.Message
}

func NewHttpError(code int, message string) *HttpError {
	return &HttpError{Code: code, Message: message}
}

// ErrorHandlerMiddleware converts errors returned by handlers into the
// JSON envelope. Unknown errors become 500 without leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var httpErr *HttpError
		if errors.As(err, &httpErr) {
			return c.Status(httpErr.Code).JSON(fiber.Map{"message": httpErr.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		log.Printf("[ERROR] Unhandled error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
