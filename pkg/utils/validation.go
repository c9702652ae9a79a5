package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var validationMessages = map[string]string{
	"required":      "is required",
	"min":           "must be at least %s",
	"max":           "must be at most %s",
	"oneof":         "must be one of %s",
	"latitude":      "must be a valid latitude",
	"longitude":     "must be a valid longitude",
	"urgency_label": "must be one of Low, Medium, High, Emergency",
}

var tagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"oneof": true,
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	if err := validate.RegisterValidation("urgency_label", validateUrgencyLabel); err != nil {
		panic("utils: register urgency_label validation: " + err.Error())
	}
}

// ValidateStruct validates s against its `validate` tags
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FormatFirstValidationError renders the first field failure of a
// validator error as "<field> <message>".
func FormatFirstValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if err == nil || !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "invalid input"
	}

	first := validationErrors[0]
	message, ok := validationMessages[first.Tag()]
	if !ok {
		message = "is invalid"
	}
	if tagsWithParams[first.Tag()] {
		param := first.Param()
		if first.Tag() == "oneof" {
			param = strings.Join(strings.Fields(param), ", ")
		}
		message = strings.Replace(message, "%s", param, 1)
	}
	return first.Field() + " " + message
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func validateUrgencyLabel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Low", "Medium", "High", "Emergency":
		return true
	}
	return false
}
