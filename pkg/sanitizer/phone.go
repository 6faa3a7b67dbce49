package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"tablebook/pkg/locale"
)

const (
	PhoneMask       = "+7 (XXX) XXX-XX-XX"
	MaskedPhoneLen  = len(PhoneMask)
	nationalDigits  = 10
	maskCountryCode = "+7"
)

var reMaskedPhone = regexp.MustCompile(`^\+7 \(\d{3}\) \d{3}-\d{2}-\d{2}$`)

// MaskPhone formats whatever has been typed so far into the phone mask.
// A leading 7 or 8 is taken as the country or trunk prefix and dropped.
func MaskPhone(input string) string {
	digits := onlyDigits(input)
	if digits == "" {
		return ""
	}
	if digits[0] == '7' || digits[0] == '8' {
		digits = digits[1:]
	}
	if len(digits) > nationalDigits {
		digits = digits[:nationalDigits]
	}

	var b strings.Builder
	b.Grow(MaskedPhoneLen)
	b.WriteString(maskCountryCode)

	n := len(digits)
	if n > 0 {
		b.WriteString(" (")
		b.WriteString(digits[:min(n, 3)])
	}
	if n > 3 {
		b.WriteString(") ")
		b.WriteString(digits[3:min(n, 6)])
	}
	if n > 6 {
		b.WriteString("-")
		b.WriteString(digits[6:min(n, 8)])
	}
	if n > 8 {
		b.WriteString("-")
		b.WriteString(digits[8:n])
	}
	return b.String()
}

// IsMaskedPhone is the final check before submission.
func IsMaskedPhone(phone string) bool {
	return reMaskedPhone.MatchString(phone)
}

// NormalizePhone returns the E.164 form of a phone, or "" when it cannot be
// parsed.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, locale.RegionForPhone(phone))
	if err != nil {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
