package dto

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/petfinder/petfinder-backend/internal/models"
)

// UserResponse содержит публичное представление пользователя.
// Учётные поля и токены наружу не отдаются.
type UserResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone,omitempty"`
	Role        string          `json:"role"`
	IsVerified  bool            `json:"isVerified"`
	Location    models.Location `json:"location"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewUserResponse собирает представление пользователя.
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		Role:        user.Role,
		IsVerified:  user.IsVerified,
		Location:    models.Location{Area: user.LocationArea, City: user.LocationCity},
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// AuthResponse отдаётся при входе и регистрации.
type AuthResponse struct {
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// PetResponse содержит представление объявления. Изображения всегда
// встроены как data URI.
type PetResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          *uuid.UUID          `json:"userId"`
	Name            string              `json:"name"`
	Type            string              `json:"type"`
	Breed           string              `json:"breed"`
	Color           string              `json:"color"`
	Size            string              `json:"size"`
	Age             string              `json:"age"`
	Gender          string              `json:"gender"`
	Description     string              `json:"description"`
	Status          string              `json:"status"`
	Images          []PetImageResponse  `json:"images"`
	Location        PetLocationResponse `json:"location"`
	DateReported    time.Time           `json:"dateReported"`
	DateLostOrFound time.Time           `json:"dateLostOrFound"`
	ContactInfo     ContactInfo         `json:"contactInfo"`
	Reward          float64             `json:"reward"`
	IsActive        bool                `json:"isActive"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// PetLocationResponse описывает место в ответе API.
type PetLocationResponse struct {
	Area        string       `json:"area"`
	City        string       `json:"city"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// PetImageResponse содержит изображение, встроенное как data URI.
type PetImageResponse struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

// NewPetResponse собирает представление объявления.
func NewPetResponse(pet *models.Pet) PetResponse {
	images := make([]PetImageResponse, 0, len(pet.Images))
	for _, img := range pet.Images {
		images = append(images, PetImageResponse{
			Data:        "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			ContentType: img.ContentType,
		})
	}

	location := PetLocationResponse{Area: pet.LocationArea, City: pet.LocationCity}
	if pet.Lat != nil || pet.Lng != nil {
		location.Coordinates = &Coordinates{Lat: pet.Lat, Lng: pet.Lng}
	}

	return PetResponse{
		ID:              pet.ID,
		UserID:          pet.UserID,
		Name:            pet.Name,
		Type:            pet.Type,
		Breed:           pet.Breed,
		Color:           pet.Color,
		Size:            pet.Size,
		Age:             pet.Age,
		Gender:          pet.Gender,
		Description:     pet.Description,
		Status:          pet.Status,
		Images:          images,
		Location:        location,
		DateReported:    pet.DateReported,
		DateLostOrFound: pet.DateLostOrFound,
		ContactInfo: ContactInfo{
			Name:  pet.ContactName,
			Phone: pet.ContactPhone,
			Email: pet.ContactEmail,
		},
		Reward:    pet.Reward,
		IsActive:  pet.IsActive,
		CreatedAt: pet.CreatedAt,
		UpdatedAt: pet.UpdatedAt,
	}
}

// NewPetResponses собирает представления для списка объявлений.
func NewPetResponses(pets []models.Pet) []PetResponse {
	out := make([]PetResponse, 0, len(pets))
	for i := range pets {
		out = append(out, NewPetResponse(&pets[i]))
	}
	return out
}

// PetListResponse содержит страницу объявлений.
type PetListResponse struct {
	Pets        []PetResponse `json:"pets"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Total       int           `json:"total"`
}

// MyPetsResponse содержит объявления пользователя и его сводку.
type MyPetsResponse struct {
	Pets       []PetResponse         `json:"pets"`
	Statistics *models.PetStatistics `json:"statistics"`
}

// UserListResponse содержит страницу пользователей для админки.
type UserListResponse struct {
	Users       []UserResponse `json:"users"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int            `json:"total"`
}

// DashboardResponse содержит агрегаты административной панели.
type DashboardResponse struct {
	Stats models.DashboardStats `json:"stats"`
}
