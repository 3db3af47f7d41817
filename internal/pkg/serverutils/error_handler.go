package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type statusCoder interface {
	StatusCode() int
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message := classify(err)
		return ctx.Status(status).JSON(ErrorResponse(message))
	}
}

func classify(err error) (int, string) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return fiber.StatusBadRequest, strings.Join(fields, ", ")
	}

	var coded statusCoder
	if errors.As(err, &coded) {
		return coded.StatusCode(), err.Error()
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, err.Error()
}
