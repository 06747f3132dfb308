package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate    *validator.Validate
	mobileRegex = regexp.MustCompile(`^[0-9]{10,15}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return ValidateMobile(fl.Field().String())
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func ValidateMobile(mobile string) bool {
	return mobileRegex.MatchString(mobile)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func FormatValidationError(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := strings.ToLower(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				errors[field] = fmt.Sprintf("%s is required", field)
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
			case "max":
				errors[field] = fmt.Sprintf("%s must be at most %s characters", field, fieldError.Param())
			case "len":
				errors[field] = fmt.Sprintf("%s must be exactly %s characters", field, fieldError.Param())
			case "numeric":
				errors[field] = fmt.Sprintf("%s must contain digits only", field)
			case "alphanum":
				errors[field] = fmt.Sprintf("%s must contain letters and digits only", field)
			case "oneof":
				errors[field] = fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
			case "mobile":
				errors[field] = fmt.Sprintf("%s must be 10 to 15 digits", field)
			case "gt":
				errors[field] = fmt.Sprintf("%s must be greater than %s", field, fieldError.Param())
			default:
				errors[field] = fmt.Sprintf("%s is invalid", field)
			}
		}
	}

	return errors
}
