package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrPlaceEmpty is returned when the place name is empty or whitespace-only after trim.
var ErrPlaceEmpty = errors.New("place name is required")

// ErrPlaceTooShort is returned when the place name length is below the minimum.
var ErrPlaceTooShort = errors.New("place name too short")

// ErrPlaceTooLong is returned when the place name length exceeds the maximum.
var ErrPlaceTooLong = errors.New("place name too long")

// ErrPlaceInvalidChars is returned when the place name contains disallowed characters.
var ErrPlaceInvalidChars = errors.New("place name contains invalid characters")

// ValidatePlaceName trims the input, enforces length bounds (minLen, maxLen in
// runes), and restricts to allowed characters: letters (Unicode), digits,
// space, comma, hyphen, apostrophe, period. Used for both country and city
// query parameters before they reach an upstream provider. Returns the trimmed
// string or an error suitable for 400 INVALID_PLACE responses. Normalization
// (e.g. lowercase cache keys) is left to the service layer.
func ValidatePlaceName(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrPlaceEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrPlaceTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrPlaceTooLong
	}
	for _, c := range r {
		if !isAllowedPlaceRune(c) {
			return "", ErrPlaceInvalidChars
		}
	}
	return s, nil
}

// isAllowedPlaceRune returns true for letters (Unicode), digits, space, comma,
// hyphen, apostrophe, period. Apostrophe and period admit real names like
// "Côte d'Ivoire" and "Washington D.C.".
func isAllowedPlaceRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'', '.':
		return true
	}
	return false
}
