package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ParseToggle parses a y/n command line answer
func ParseToggle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected y or n, got %q", s)
}

// ParseRate parses a positive exchange rate
func ParseRate(s string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid exchange rate %q: %w", s, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("exchange rate must be positive: %s", s)
	}
	return rate, nil
}

// ValidateID checks an identifier taken from the command line
func ValidateID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	if controlChars.MatchString(value) || strings.ContainsAny(value, "/\\?#") {
		return fmt.Errorf("%s contains invalid characters: %q", name, value)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
