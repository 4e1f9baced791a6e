package services

import (
	"fmt"
	"regexp"
	"remind-lab/errors"
	"strings"
	"unicode/utf8"
)

// MaxContentRunes mirrors the longest text the messaging transport accepts.
const MaxContentRunes = 4096

var phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// NormalizePhone strips spaces and dashes and checks the E.164-like shape.
func NormalizePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	if !phonePattern.MatchString(cleaned) {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidPhone, phone)
	}
	return cleaned, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return "", fmt.Errorf("%w: more than %d characters", errors.ErrContentTooLong, MaxContentRunes)
	}
	return content, nil
}
