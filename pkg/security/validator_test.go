package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSearchQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectError bool
		errorMsg    string
		expected    string
	}{
		{
			name:     "valid simple query",
			query:    "john",
			expected: "john",
		},
		{
			name:     "surrounding whitespace is trimmed",
			query:    "  sao paulo \t",
			expected: "sao paulo",
		},
		{
			name:     "valid email-like query",
			query:    "john@example.com",
			expected: "john@example.com",
		},
		{
			name:     "sql keywords are plain text",
			query:    "select",
			expected: "select",
		},
		{
			name:     "regex metacharacters are plain text",
			query:    "a.*(b)",
			expected: "a.*(b)",
		},
		{
			name:     "accented characters count once",
			query:    "jo",
			expected: "jo",
		},
		{
			name:     "two multibyte characters",
			query:    "ão",
			expected: "ão",
		},
		{
			name:        "empty query",
			query:       "",
			expectError: true,
			errorMsg:    "must be at least 2 characters",
		},
		{
			name:        "single character after trim",
			query:       " a ",
			expectError: true,
			errorMsg:    "must be at least 2 characters",
		},
		{
			name:        "query too long",
			query:       strings.Repeat("a", MaxSearchQueryLength+1),
			expectError: true,
			errorMsg:    "must be at most 100 characters",
		},
		{
			name:        "control character",
			query:       "jo\x00hn",
			expectError: true,
			errorMsg:    "contains invalid characters",
		},
		{
			name:        "invalid utf-8",
			query:       "jo\xffhn",
			expectError: true,
			errorMsg:    "contains invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateSearchQuery(tt.query)

			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorMsg, err.Error())
				assert.Empty(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateSearchQuery_MaxLengthCountsRunes(t *testing.T) {
	query := strings.Repeat("ã", MaxSearchQueryLength)

	result, err := ValidateSearchQuery(query)

	require.NoError(t, err)
	assert.Equal(t, query, result)
}

func TestSanitizeSearchString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no special characters", input: "john", expected: "john"},
		{name: "percent", input: "50%", expected: `50\%`},
		{name: "underscore", input: "john_doe", expected: `john\_doe`},
		{name: "backslash escaped first", input: `a\%`, expected: `a\\\%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeSearchString(tt.input))
		})
	}
}
