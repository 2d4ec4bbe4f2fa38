package middleware

import (
	"quiz-lens/internal/domain"
	"quiz-lens/internal/dto"
	"quiz-lens/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	ValidatedIndexKey  = "validated_index"
	ValidatedOptionKey = "validated_option"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateAnswerParams validates the :index path parameter and the option
// in the JSON body of an answer request.
func (vm *ValidationMiddleware) ValidateAnswerParams() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.SelectAnswerRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}

		index, errors := vm.validator.ValidateAnswer(c.Params("index"), req.Option)
		if len(errors) > 0 {
			return errors
		}

		c.Locals(ValidatedIndexKey, index)
		c.Locals(ValidatedOptionKey, req.Option)
		return c.Next()
	}
}

// ValidateIndexParam validates the :index path parameter
func (vm *ValidationMiddleware) ValidateIndexParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, errors := vm.validator.ValidateIndex(c.Params("index"))
		if len(errors) > 0 {
			return errors
		}
		c.Locals(ValidatedIndexKey, index)
		return c.Next()
	}
}
