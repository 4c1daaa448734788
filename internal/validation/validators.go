package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	resourceNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
	resourceNameAnchor  = regexp.MustCompile(`[a-z0-9]`)
	datasetNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)
)

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("resource_name", validateResourceName); err != nil {
		panic(fmt.Sprintf("failed to register resource_name validator: %v", err))
	}
	if err := Validate.RegisterValidation("dataset_name", validateDatasetName); err != nil {
		panic(fmt.Sprintf("failed to register dataset_name validator: %v", err))
	}
}

// validateResourceName accepts lowercase slugs used for field, question and
// vector settings names. At least one letter or digit is required.
func validateResourceName(fl validator.FieldLevel) bool {
	return IsResourceName(fl.Field().String())
}

// validateDatasetName accepts letters, digits, spaces, hyphens and underscores,
// but not a leading hyphen or underscore.
func validateDatasetName(fl validator.FieldLevel) bool {
	return IsDatasetName(fl.Field().String())
}

// IsResourceName reports whether name is a valid field, question or vector settings name
func IsResourceName(name string) bool {
	return resourceNamePattern.MatchString(name) && resourceNameAnchor.MatchString(name)
}

// IsDatasetName reports whether name is a valid dataset name
func IsDatasetName(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") {
		return false
	}
	return datasetNamePattern.MatchString(name)
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// Message turns a validator error into a short client-facing message
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "resource_name":
			parts = append(parts, fmt.Sprintf("%s must contain only lowercase letters, digits, '-' and '_'", field))
		case "dataset_name":
			parts = append(parts, fmt.Sprintf("%s must contain only letters, digits, spaces, '-' and '_' and not start with '-' or '_'", field))
		case "min", "max", "gt", "gte":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}
