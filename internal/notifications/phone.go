package notifications

import (
	"fmt"
	"strings"
)

// NormalizePhone converts free-form phone input to a dialable E.164
// number. All non-digit characters are stripped first. A 10-digit
// number is assumed to be an Indian mobile number; longer digit strings
// are treated as already carrying a country code.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if digits == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}

	switch {
	case len(digits) >= 11 && strings.HasPrefix(digits, "91"):
		return "+" + digits, nil
	case len(digits) == 10:
		return "+91" + digits, nil
	case len(digits) >= 11:
		return "+" + digits, nil
	default:
		return "", fmt.Errorf("%w: too short to be a valid number", ErrInvalidInput)
	}
}
