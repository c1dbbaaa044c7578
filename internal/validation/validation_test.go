package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePlaceName_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePlaceName(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrPlaceEmpty) {
				t.Errorf("error = %v, want ErrPlaceEmpty", err)
			}
		})
	}
}

func TestValidatePlaceName_TooShort(t *testing.T) {
	_, err := ValidatePlaceName("x", 2, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrPlaceTooShort) {
		t.Errorf("error = %v, want ErrPlaceTooShort", err)
	}
}

func TestValidatePlaceName_TooLong(t *testing.T) {
	long := strings.Repeat("a", 101)
	_, err := ValidatePlaceName(long, 1, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrPlaceTooLong) {
		t.Errorf("error = %v, want ErrPlaceTooLong", err)
	}
}

func TestValidatePlaceName_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "sri/lanka"},
		{"backslash", "sri\\lanka"},
		{"question", "sri?lanka"},
		{"hash", "sri#lanka"},
		{"control", "sri\x00lanka"},
		{"percent", "sri%lanka"},
		{"ampersand", "sri&lanka"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePlaceName(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrPlaceInvalidChars) {
				t.Errorf("error = %v, want ErrPlaceInvalidChars", err)
			}
		})
	}
}

func TestValidatePlaceName_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNorm string
	}{
		{"simple", "Kenya", "Kenya"},
		{"with space", "Sri Lanka", "Sri Lanka"},
		{"comma", "London,uk", "London,uk"},
		{"hyphen", "Guinea-Bissau", "Guinea-Bissau"},
		{"apostrophe", "Côte d'Ivoire", "Côte d'Ivoire"},
		{"period", "Washington D.C.", "Washington D.C."},
		{"trimmed", "  Brazil  ", "Brazil"},
		{"unicode", "Zürich", "Zürich"},
		{"digits", "Area51", "Area51"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidatePlaceName(tc.input, 1, 100)
			if err != nil {
				t.Fatalf("ValidatePlaceName() err = %v", err)
			}
			if got != tc.wantNorm {
				t.Errorf("normalized = %q, want %q", got, tc.wantNorm)
			}
		})
	}
}

func TestValidatePlaceName_LengthBoundaries(t *testing.T) {
	// Exactly min length
	got, err := ValidatePlaceName("ab", 2, 100)
	if err != nil {
		t.Fatalf("min boundary: err = %v", err)
	}
	if got != "ab" {
		t.Errorf("min boundary: got %q", got)
	}
	// Exactly max length (100 runes)
	s100 := strings.Repeat("a", 100)
	got, err = ValidatePlaceName(s100, 1, 100)
	if err != nil {
		t.Fatalf("max boundary: err = %v", err)
	}
	if len([]rune(got)) != 100 {
		t.Errorf("max boundary: rune count = %d, want 100", len([]rune(got)))
	}
	// One over max
	_, err = ValidatePlaceName(s100+"a", 1, 100)
	if err == nil || !errors.Is(err, ErrPlaceTooLong) {
		t.Errorf("over max: err = %v, want ErrPlaceTooLong", err)
	}
}
