package validators

import "strings"

// SanitizeString trims whitespace, drops control characters, and caps length.
// Tracking numbers and carrier names arrive from manual entry and carrier
// callbacks alike, so both paths get the same cleanup.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxLen > 0 && len(cleaned) > maxLen {
		return cleaned[:maxLen]
	}
	return cleaned
}
