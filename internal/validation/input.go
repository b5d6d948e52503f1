package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength        = 1
	MaxNameLength        = 100
	MaxBreedLength       = 100
	MaxColorLength       = 50
	MaxDescriptionLength = 5000
	MaxLocationLength    = 100
	MaxPhoneLength       = 20
	MaxRewardAmount      = 10000000.0
)

var emailLocalRegex = regexp.MustCompile(`^[a-z0-9._+-]+$`)
var emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9()\s-]{5,20}$`)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("invalid email format")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("invalid email format")
	}
	if !emailLocalRegex.MatchString(localPart) || !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePhone проверяет формат телефона. Пустой телефон допустим.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(strings.TrimSpace(phone)) {
		return fmt.Errorf("invalid phone format")
	}
	return nil
}

// ValidateEnum проверяет принадлежность значения допустимому набору.
func ValidateEnum(fieldName, value string, allowed []string) error {
	for _, v := range allowed {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", fieldName, strings.Join(allowed, ", "))
}

// ValidateReward проверяет сумму вознаграждения.
func ValidateReward(reward float64) error {
	if reward < 0 {
		return fmt.Errorf("reward cannot be negative")
	}
	if reward > MaxRewardAmount {
		return fmt.Errorf("reward cannot exceed %.0f", MaxRewardAmount)
	}
	return nil
}
