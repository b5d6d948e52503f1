package dto

import "github.com/petfinder/petfinder-backend/internal/models"

// RegisterRequest содержит данные регистрации пользователя.
type RegisterRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    *string          `json:"phone"`
	Password string           `json:"password"`
	Location *models.Location `json:"location"`
}

// LoginRequest содержит данные входа. В поле emailOrPhone клиент может
// прислать любой из двух идентификаторов.
type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
	Password     string `json:"password"`
}

// VerifyEmailRequest содержит одноразовый токен подтверждения.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// UpdateProfileRequest содержит частичное обновление профиля.
// nil означает «поле не менять».
type UpdateProfileRequest struct {
	Name     *string          `json:"name"`
	Phone    *string          `json:"phone"`
	Location *models.Location `json:"location"`
}

// Coordinates содержит географические координаты места пропажи или находки.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// PetLocation описывает место в том виде, в каком его присылает клиент.
type PetLocation struct {
	Area        string       `json:"area"`
	City        string       `json:"city"`
	Coordinates *Coordinates `json:"coordinates"`
}

// ContactInfo содержит контактные данные заявителя.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreatePetRequest содержит JSON-часть multipart-формы подачи объявления.
type CreatePetRequest struct {
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Breed           string       `json:"breed"`
	Color           string       `json:"color"`
	Size            string       `json:"size"`
	Age             string       `json:"age"`
	Gender          string       `json:"gender"`
	Description     string       `json:"description"`
	Status          string       `json:"status"`
	Location        PetLocation  `json:"location"`
	DateLostOrFound string       `json:"dateLostOrFound"`
	ContactInfo     *ContactInfo `json:"contactInfo"`
	Reward          float64      `json:"reward"`
}

// UpdatePetStatusRequest содержит новый статус объявления.
type UpdatePetStatusRequest struct {
	Status string `json:"status"`
}

// AdminUpdateUserRequest содержит частичное модераторское обновление
// пользователя. nil означает «поле не менять».
type AdminUpdateUserRequest struct {
	Role       *string `json:"role"`
	IsVerified *bool   `json:"isVerified"`
}
