package handler

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// money: at most two decimal places
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		amount := fl.Field().Float()
		return math.Round(amount*100)/100 == amount
	})

	return v
}

// validateStruct reports every failed rule as one message of a single
// Validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.Internal("Internal server error", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return apierror.Validation(messages...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be an email", field)
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be a positive number", field)
	case "money":
		return fmt.Sprintf("%s must be a number with at most 2 decimal places", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
