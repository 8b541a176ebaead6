package queue

import (
	"regexp"
	"strings"
)

// regionRule describes the local-number format for one supported
// country calling code.
type regionRule struct {
	pattern *regexp.Regexp
	hint    string
}

// Saudi mobile numbers are nine digits starting with 5. The other Gulf
// countries use plain eight-digit local numbers.
var regionRules = map[string]regionRule{
	"966": {regexp.MustCompile(`^5\d{8}$`), "must be 9 digits starting with 5"},
	"971": {regexp.MustCompile(`^\d{8}$`), "must be 8 digits"},
	"965": {regexp.MustCompile(`^\d{8}$`), "must be 8 digits"},
	"973": {regexp.MustCompile(`^\d{8}$`), "must be 8 digits"},
	"968": {regexp.MustCompile(`^\d{8}$`), "must be 8 digits"},
	"974": {regexp.MustCompile(`^\d{8}$`), "must be 8 digits"},
}

// NormalizePhone validates the local number against its region rule and
// returns the E.164 form.
func NormalizePhone(countryCode, localNumber string) (string, error) {
	code := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	local := strings.TrimSpace(localNumber)

	rule, ok := regionRules[code]
	if !ok {
		return "", NewValidationError("country_code", "unsupported country code")
	}
	if !rule.pattern.MatchString(local) {
		return "", NewValidationError("local_number", rule.hint)
	}

	return "+" + code + local, nil
}
