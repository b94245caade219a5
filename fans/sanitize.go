package fans

import (
	"unicode"

	"github.com/apexgp/paddock/models"
)

// sanitizeFan strips sensitive fields before returning fan payloads.
func sanitizeFan(fan models.Fan) models.Fan {
	fan.Password = ""
	fan.OTPSecret = ""
	fan.DeviceToken = ""
	return fan
}

// validatePassword requires at least 8 characters with one upper-case
// letter, one digit and one symbol.
func validatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasDigit && hasSymbol
}
