package validator

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// sourceURLValidator accepts absolute http(s) URLs only. The provider fetches
// these itself, so anything else (file paths, data URIs) must be rejected at
// the front door.
func sourceURLValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	parsed, err := url.Parse(val)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
