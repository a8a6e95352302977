package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	referenceRe    = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,128}$`)
	currencyCodeRe = regexp.MustCompile(`^[a-zA-Z0-9]{2,12}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("reference", validateReference)
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	}
}

// validateReference accepts chain hashes and provider ids: alphanumerics
// plus underscore, dash, dot and colon.
func validateReference(fl validator.FieldLevel) bool {
	return referenceRe.MatchString(fl.Field().String())
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRe.MatchString(fl.Field().String())
}
