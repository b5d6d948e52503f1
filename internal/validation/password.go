package validation

import (
	"fmt"
)

// MinPasswordLength — минимальная длина пароля при регистрации.
const MinPasswordLength = 6

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
