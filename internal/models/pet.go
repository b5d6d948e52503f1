package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы объявления. Единственная значимая машина состояний в системе:
// переходы намеренно не ограничены, допустим любой из трёх статусов.
const (
	PetStatusLost     = "lost"
	PetStatusFound    = "found"
	PetStatusReunited = "reunited"
)

// ValidPetStatus проверяет принадлежность статуса допустимому набору.
func ValidPetStatus(status string) bool {
	switch status {
	case PetStatusLost, PetStatusFound, PetStatusReunited:
		return true
	}
	return false
}

// Допустимые значения классификационных полей.
var (
	PetTypes   = []string{"dog", "cat", "bird", "rabbit", "other"}
	PetSizes   = []string{"small", "medium", "large"}
	PetAges    = []string{"puppy", "young", "adult", "senior"}
	PetGenders = []string{"male", "female", "unknown"}
)

// Pet описывает объявление о потерянном или найденном животном.
// Контактные данные фиксируются на момент подачи и не связаны
// с актуальным профилем пользователя.
type Pet struct {
	ID              uuid.UUID  `db:"id"`
	UserID          *uuid.UUID `db:"user_id"`
	Name            string     `db:"name"`
	Type            string     `db:"type"`
	Breed           string     `db:"breed"`
	Color           string     `db:"color"`
	Size            string     `db:"size"`
	Age             string     `db:"age"`
	Gender          string     `db:"gender"`
	Description     string     `db:"description"`
	Status          string     `db:"status"`
	LocationArea    string     `db:"location_area"`
	LocationCity    string     `db:"location_city"`
	Lat             *float64   `db:"lat"`
	Lng             *float64   `db:"lng"`
	DateReported    time.Time  `db:"date_reported"`
	DateLostOrFound time.Time  `db:"date_lost_or_found"`
	ContactName     string     `db:"contact_name"`
	ContactEmail    string     `db:"contact_email"`
	ContactPhone    string     `db:"contact_phone"`
	Reward          float64    `db:"reward"`
	IsActive        bool       `db:"is_active"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`

	// Изображения загружаются отдельным запросом к pet_images.
	Images []PetImage `db:"-"`
}

// PetImage хранит бинарные данные изображения объявления.
// Наружу изображение всегда отдаётся как data URI, никогда как ссылка.
type PetImage struct {
	ID          uuid.UUID `db:"id"`
	PetID       uuid.UUID `db:"pet_id"`
	Position    int       `db:"position"`
	ContentType string    `db:"content_type"`
	Data        []byte    `db:"data"`
}

// PetStatistics содержит сводку по объявлениям пользователя.
type PetStatistics struct {
	TotalReported int `db:"total_reported" json:"totalReported"`
	ReunitedPets  int `db:"reunited_pets"  json:"reunitedPets"`
	ActivePets    int `db:"active_pets"    json:"activePets"`
	LostPets      int `db:"lost_pets"      json:"lostPets"`
	FoundPets     int `db:"found_pets"     json:"foundPets"`
}

// DashboardStats содержит агрегаты для административной панели.
type DashboardStats struct {
	TotalPets     int `json:"totalPets"`
	LostPets      int `json:"lostPets"`
	FoundPets     int `json:"foundPets"`
	ReunitedPets  int `json:"reunitedPets"`
	TotalUsers    int `json:"totalUsers"`
	VerifiedUsers int `json:"verifiedUsers"`
	RecentPets    int `json:"recentPets"`
	RecentUsers   int `json:"recentUsers"`
}
