package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
	"github.com/petfinder/petfinder-backend/internal/repository"
	"github.com/petfinder/petfinder-backend/internal/validation"
)

// Параметры публичной выдачи.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// PetRepo описывает хранилище объявлений.
type PetRepo interface {
	Create(ctx context.Context, pet *models.Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	List(ctx context.Context, filter repository.PetFilter) ([]models.Pet, error)
	Count(ctx context.Context, filter repository.PetFilter) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error)
	Search(ctx context.Context, query string) ([]models.Pet, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	StatisticsByUser(ctx context.Context, userID uuid.UUID) (*models.PetStatistics, error)
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string, onlyActive bool) (int, error)
	CountReportedSince(ctx context.Context, since time.Time) (int, error)
}

// PetListParams содержит параметры публичного списка объявлений.
type PetListParams struct {
	Status   string
	Type     string
	Location string
	Page     int
	Limit    int
}

// PetPage содержит страницу выдачи.
type PetPage struct {
	Pets       []models.Pet
	Total      int
	Page       int
	TotalPages int
}

// PetService реализует подачу и выдачу объявлений.
type PetService struct {
	pets             PetRepo
	users            UserRepo
	openStatusUpdate bool
}

// NewPetService создаёт сервис объявлений.
func NewPetService(pets PetRepo, users UserRepo, openStatusUpdate bool) *PetService {
	return &PetService{pets: pets, users: users, openStatusUpdate: openStatusUpdate}
}

// Create сохраняет новое объявление. Дата подачи выставляется сервером,
// контактные данные фиксируются на момент подачи: из запроса либо,
// если их нет, из профиля заявителя.
func (s *PetService) Create(ctx context.Context, userID uuid.UUID, req dto.CreatePetRequest, images []models.PetImage) (*models.Pet, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	dateLostOrFound, err := parseDate(req.DateLostOrFound)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "dateLostOrFound must be a valid date")
	}

	pet := &models.Pet{
		UserID:          &userID,
		Name:            strings.TrimSpace(req.Name),
		Type:            req.Type,
		Breed:           strings.TrimSpace(req.Breed),
		Color:           strings.TrimSpace(req.Color),
		Size:            req.Size,
		Age:             req.Age,
		Gender:          req.Gender,
		Description:     strings.TrimSpace(req.Description),
		Status:          req.Status,
		LocationArea:    strings.TrimSpace(req.Location.Area),
		LocationCity:    strings.TrimSpace(req.Location.City),
		DateReported:    time.Now(),
		DateLostOrFound: dateLostOrFound,
		Reward:          req.Reward,
		Images:          images,
	}
	if req.Location.Coordinates != nil {
		pet.Lat = req.Location.Coordinates.Lat
		pet.Lng = req.Location.Coordinates.Lng
	}

	if req.ContactInfo != nil {
		pet.ContactName = strings.TrimSpace(req.ContactInfo.Name)
		pet.ContactPhone = strings.TrimSpace(req.ContactInfo.Phone)
		pet.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactInfo.Email))
	} else {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
		}
		pet.ContactName = user.Name
		pet.ContactEmail = user.Email
		if user.Phone != nil {
			pet.ContactPhone = *user.Phone
		}
	}

	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return pet, nil
}

// Get возвращает объявление по идентификатору.
func (s *PetService) Get(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return nil, apperror.ErrPetNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	return pet, nil
}

// List возвращает страницу активных объявлений, новые сверху.
func (s *PetService) List(ctx context.Context, params PetListParams) (*PetPage, error) {
	if params.Status != "" && !models.ValidPetStatus(params.Status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid status filter")
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.PetFilter{
		Status:     params.Status,
		Type:       params.Type,
		Location:   strings.TrimSpace(params.Location),
		OnlyActive: true,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	pets, err := s.pets.List(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	total, err := s.pets.Count(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return &PetPage{
		Pets:       pets,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

// Search ищет активные объявления по подстроке.
func (s *PetService) Search(ctx context.Context, query string) ([]models.Pet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "Search query is required")
	}

	pets, err := s.pets.Search(ctx, query)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return pets, nil
}

// MyPets возвращает объявления пользователя вместе со сводкой.
func (s *PetService) MyPets(ctx context.Context, userID uuid.UUID) ([]models.Pet, *models.PetStatistics, error) {
	pets, err := s.pets.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	stats, err := s.pets.StatisticsByUser(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return pets, stats, nil
}

// UpdateStatus меняет статус объявления. Переходы между статусами не
// ограничены, повторная установка текущего статуса допустима. Если
// открытое обновление выключено, менять статус может владелец или
// администратор.
func (s *PetService) UpdateStatus(ctx context.Context, petID uuid.UUID, status string, actorID *uuid.UUID, actorRole string) (*models.Pet, error) {
	if !models.ValidPetStatus(status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid status")
	}

	pet, err := s.Get(ctx, petID)
	if err != nil {
		return nil, err
	}

	if !s.openStatusUpdate {
		if actorID == nil {
			return nil, apperror.ErrUnauthorized
		}
		owner := pet.UserID != nil && *pet.UserID == *actorID
		if !owner && actorRole != models.RoleAdmin {
			return nil, apperror.ErrForbidden
		}
	}

	updated, err := s.pets.UpdateStatus(ctx, petID, status)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return nil, apperror.ErrPetNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return updated, nil
}

func (s *PetService) validateCreate(req dto.CreatePetRequest) error {
	checks := []error{
		validation.ValidateNonEmpty("name", req.Name),
		validation.ValidateLength("name", req.Name, validation.MinNameLength, validation.MaxNameLength),
		validation.ValidateEnum("type", req.Type, models.PetTypes),
		validation.ValidateEnum("size", req.Size, models.PetSizes),
		validation.ValidateEnum("age", req.Age, models.PetAges),
		validation.ValidateEnum("gender", req.Gender, models.PetGenders),
		validation.ValidateNonEmpty("breed", req.Breed),
		validation.ValidateLength("breed", req.Breed, 0, validation.MaxBreedLength),
		validation.ValidateNonEmpty("color", req.Color),
		validation.ValidateLength("color", req.Color, 0, validation.MaxColorLength),
		validation.ValidateNonEmpty("description", req.Description),
		validation.ValidateLength("description", req.Description, 0, validation.MaxDescriptionLength),
		validation.ValidateNonEmpty("location.area", req.Location.Area),
		validation.ValidateLength("location.area", req.Location.Area, 0, validation.MaxLocationLength),
		validation.ValidateNonEmpty("location.city", req.Location.City),
		validation.ValidateLength("location.city", req.Location.City, 0, validation.MaxLocationLength),
		validation.ValidateNonEmpty("dateLostOrFound", req.DateLostOrFound),
		validation.ValidateReward(req.Reward),
	}
	if req.Status != models.PetStatusLost && req.Status != models.PetStatusFound {
		checks = append(checks, errors.New("status must be one of: lost, found"))
	}

	for _, err := range checks {
		if err != nil {
			return apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

// parseDate принимает дату в RFC 3339 или в коротком формате YYYY-MM-DD.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// totalPages округляет вверх количество страниц выдачи.
func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
