package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinSearchQueryLength defines the minimum allowed length for search queries
	MinSearchQueryLength = 2
	// MaxSearchQueryLength defines the maximum allowed length for search queries
	MaxSearchQueryLength = 100
)

var (
	errQueryTooShort    = fmt.Errorf("must be at least %d characters", MinSearchQueryLength)
	errQueryTooLong     = fmt.Errorf("must be at most %d characters", MaxSearchQueryLength)
	errQueryInvalidChar = errors.New("contains invalid characters")
)

// ValidateSearchQuery trims a search query and checks its length, counted in characters.
// Control characters are rejected; everything else is matched literally by the stores.
func ValidateSearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)

	n := utf8.RuneCountInString(query)
	if n < MinSearchQueryLength {
		return "", errQueryTooShort
	}
	if n > MaxSearchQueryLength {
		return "", errQueryTooLong
	}

	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", errQueryInvalidChar
		}
	}

	return query, nil
}

// isValidSearchChar checks if a character is safe for search queries
func isValidSearchChar(char rune) bool {
	return char != utf8.RuneError && !unicode.IsControl(char)
}

// SanitizeSearchString prepares a query string for LIKE operations using '\' as the escape character
func SanitizeSearchString(query string) string {
	if query == "" {
		return ""
	}

	query = strings.ReplaceAll(query, `\`, `\\`)
	query = strings.ReplaceAll(query, "%", `\%`)
	query = strings.ReplaceAll(query, "_", `\_`)

	return query
}
