package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrValidation marks struct or business-rule validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrBinding marks JSON or query binding failures.
	ErrBinding = errors.New("binding failed")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the process-wide validator. The first call registers
// the json-tag name resolver and the custom uuid/notempty rules.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Report field errors under their json names, so the API surface
		// and the error surface agree.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})

		_ = validate.RegisterValidation("uuid", validateUUID)
		_ = validate.RegisterValidation("notempty", validateNotEmpty)
	})

	return validate
}

// Validate checks v against its struct tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate binds the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// BindQueryAndValidate binds query parameters into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors flattens a validator error into field-to-message pairs
// for the error envelope's details.
func ValidationErrors(err error) map[string]string {
	fieldErrors := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			fieldErrors[fieldErr.Field()] = validationMessage(fieldErr)
		}
	}

	return fieldErrors
}

// IsValidationError reports whether err carries field-level failures.
func IsValidationError(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

// validationMessages maps rule tags to message templates; {param} is
// replaced with the rule's parameter.
var validationMessages = map[string]string{
	"required": "this field is required",
	"email":    "must be a valid email address",
	"uuid":     "must be a valid UUID",
	"url":      "must be a valid URL",
	"notempty": "must not be empty",
	"gte":      "must be greater than or equal to {param}",
	"lte":      "must be less than or equal to {param}",
	"gt":       "must be greater than {param}",
	"lt":       "must be less than {param}",
	"oneof":    "must be one of: {param}",
}

func validationMessage(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	if tag == "min" || tag == "max" {
		return minMaxMessage(tag, param, fe.Type().Kind())
	}

	if msg, ok := validationMessages[tag]; ok {
		return strings.ReplaceAll(msg, "{param}", param)
	}

	return "failed validation: " + tag
}

// minMaxMessage words min/max by type: strings count characters, numbers
// compare values.
func minMaxMessage(tag, param string, kind reflect.Kind) string {
	suffix := ""
	if kind == reflect.String {
		suffix = " characters"
	}

	if tag == "min" {
		return "must be at least " + param + suffix
	}

	return "must be at most " + param + suffix
}

// validateUUID accepts empty strings; combine with required when the field
// is mandatory.
func validateUUID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	_, err := uuid.Parse(value)

	return err == nil
}

// validateNotEmpty rejects strings that are empty after trimming.
func validateNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validatable adds business-rule checks beyond what struct tags express.
type Validatable interface {
	Validate() error
}

// ValidateAll runs struct-tag validation, then the type's own Validate
// when it implements Validatable.
func ValidateAll(v any) error {
	if err := Validate(v); err != nil {
		return err
	}

	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	return nil
}
