package services

import "regexp"

var (
	casInTextRegex = regexp.MustCompile(`\b(\d{2,7}-\d{2}-\d)\b`)
	casRegex       = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)
)

// ExtractCAS returns the first CAS registry number found in free text.
func ExtractCAS(text string) (string, bool) {
	m := casInTextRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsCAS reports whether s is exactly a CAS-shaped identifier.
func IsCAS(s string) bool {
	return casRegex.MatchString(s)
}
