package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.example.org",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("%q должен проходить: %v", email, err)
		}
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"user@nodot",
		"user@.com",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("%q должен отклоняться", email)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	if err := ValidatePhone(""); err != nil {
		t.Errorf("пустой телефон допустим: %v", err)
	}
	if err := ValidatePhone("+7 (900) 123-45-67"); err != nil {
		t.Errorf("обычный телефон должен проходить: %v", err)
	}
	if err := ValidatePhone("call me maybe"); err == nil {
		t.Errorf("текст вместо номера должен отклоняться")
	}
}

func TestValidateEnum(t *testing.T) {
	allowed := []string{"lost", "found", "reunited"}

	if err := ValidateEnum("status", "lost", allowed); err != nil {
		t.Errorf("допустимое значение отклонено: %v", err)
	}
	if err := ValidateEnum("status", "adopted", allowed); err == nil {
		t.Errorf("недопустимое значение должно отклоняться")
	}
	// Сравнение строгое, регистр имеет значение.
	if err := ValidateEnum("status", "Lost", allowed); err == nil {
		t.Errorf("значение в другом регистре должно отклоняться")
	}
}

func TestValidateReward(t *testing.T) {
	if err := ValidateReward(0); err != nil {
		t.Errorf("нулевое вознаграждение допустимо: %v", err)
	}
	if err := ValidateReward(-10); err == nil {
		t.Errorf("отрицательное вознаграждение должно отклоняться")
	}
	if err := ValidateReward(MaxRewardAmount + 1); err == nil {
		t.Errorf("вознаграждение сверх лимита должно отклоняться")
	}
}

func TestValidateLength(t *testing.T) {
	if err := ValidateLength("name", "Барсик", 1, 10); err != nil {
		t.Errorf("длина считается в рунах, не в байтах: %v", err)
	}
	if err := ValidateLength("name", "", 1, 10); err == nil {
		t.Errorf("пустая строка при min=1 должна отклоняться")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("123456"); err != nil {
		t.Errorf("пароль минимальной длины должен проходить: %v", err)
	}
	if err := ValidatePassword("12345"); err == nil {
		t.Errorf("короткий пароль должен отклоняться")
	}
}
