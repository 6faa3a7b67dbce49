package locale

import "strings"

const (
	DefaultRegion   = "RU"
	DefaultTimezone = "Europe/Moscow"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code
	Name            string   // Human-readable country name
	DialCode        string   // Country calling code with plus sign
	PhonePrefixes   []string // Prefixes a typed number may start with
	DefaultTimezone string   // IANA timezone identifier
}

var Countries = map[string]Country{
	"RU": {
		Code:            "RU",
		Name:            "Russia",
		DialCode:        "+7",
		PhonePrefixes:   []string{"+7", "7", "8"},
		DefaultTimezone: "Europe/Moscow",
	},
	"KZ": {
		Code:            "KZ",
		Name:            "Kazakhstan",
		DialCode:        "+7",
		PhonePrefixes:   []string{"+77", "77"},
		DefaultTimezone: "Asia/Almaty",
	},
}

// InferCountryFromPhone matches the most specific prefix, so +77 numbers
// resolve to Kazakhstan before the shared +7 prefix.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil
	}

	var best *Country
	bestLen := 0
	for code := range Countries {
		country := Countries[code]
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) && len(prefix) > bestLen {
				c := country
				best = &c
				bestLen = len(prefix)
			}
		}
	}
	return best
}

// RegionForPhone is the region code used to parse a phone number.
func RegionForPhone(phone string) string {
	if c := InferCountryFromPhone(phone); c != nil {
		return c.Code
	}
	return DefaultRegion
}
