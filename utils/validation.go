// utils/validation.go
package utils

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPhoneFormat = errors.New("invalid phone format")

// 10 significant digits, optionally preceded by 7, 8 or +7.
var phonePattern = regexp.MustCompile(`^(?:\+7|7|8)?(\d{10})$`)

var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone canonicalizes free-form input to +7XXXXXXXXXX. The same
// number always normalizes identically however it was typed.
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneCleaner.Replace(strings.TrimSpace(raw))
	m := phonePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", ErrInvalidPhoneFormat
	}
	return "+7" + m[1], nil
}
