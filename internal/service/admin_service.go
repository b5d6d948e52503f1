package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/goroutine"
	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
	"github.com/petfinder/petfinder-backend/internal/repository"
)

// Параметры административной выдачи.
const (
	AdminPageSize = 20
	// Окно «недавних» записей на панели.
	recentWindow = 30 * 24 * time.Hour
)

// AdminUserRepo описывает операции над пользователями, доступные модерации.
type AdminUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	Count(ctx context.Context, search string) (int, error)
	UpdateModeration(ctx context.Context, userID uuid.UUID, role *string, isVerified *bool) (*models.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
	CountVerified(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

// AdminPetListParams содержит параметры административного списка объявлений.
type AdminPetListParams struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// UserPage содержит страницу пользователей.
type UserPage struct {
	Users      []models.User
	Total      int
	Page       int
	TotalPages int
}

// AdminService реализует модерацию объявлений и пользователей.
type AdminService struct {
	pets   PetRepo
	users  AdminUserRepo
	mailer Mailer
}

// NewAdminService создаёт сервис модерации.
func NewAdminService(pets PetRepo, users AdminUserRepo, mailer Mailer) *AdminService {
	return &AdminService{pets: pets, users: users, mailer: mailer}
}

// DashboardStats собирает агрегаты для панели. Потерянные и найденные
// считаются только среди активных объявлений, остальные счётчики полные.
func (s *AdminService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	since := time.Now().Add(-recentWindow)
	stats := &models.DashboardStats{}

	var err error
	if stats.TotalPets, err = s.pets.CountAll(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.LostPets, err = s.pets.CountByStatus(ctx, models.PetStatusLost, true); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.FoundPets, err = s.pets.CountByStatus(ctx, models.PetStatusFound, true); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.ReunitedPets, err = s.pets.CountByStatus(ctx, models.PetStatusReunited, false); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.TotalUsers, err = s.users.CountAll(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.VerifiedUsers, err = s.users.CountVerified(ctx); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.RecentPets, err = s.pets.CountReportedSince(ctx, since); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	if stats.RecentUsers, err = s.users.CountCreatedSince(ctx, since); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return stats, nil
}

// ListPets возвращает страницу объявлений без фильтра активности:
// модератор видит и скрытые, и воссоединённые.
func (s *AdminService) ListPets(ctx context.Context, params AdminPetListParams) (*PetPage, error) {
	if params.Status != "" && !models.ValidPetStatus(params.Status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid status filter")
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = AdminPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := repository.PetFilter{
		Status: params.Status,
		Search: strings.TrimSpace(params.Search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	pets, err := s.pets.List(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	total, err := s.pets.Count(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return &PetPage{Pets: pets, Total: total, Page: page, TotalPages: totalPages(total, limit)}, nil
}

// ListUsers возвращает страницу пользователей, новые сверху.
func (s *AdminService) ListUsers(ctx context.Context, search string, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = AdminPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	users, err := s.users.List(ctx, strings.TrimSpace(search), limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	total, err := s.users.Count(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return &UserPage{Users: users, Total: total, Page: page, TotalPages: totalPages(total, limit)}, nil
}

// UpdatePetStatus меняет статус объявления от имени модератора. При
// переводе в reunited владельцу уходит поздравительное письмо; сбой
// отправки на результат не влияет.
func (s *AdminService) UpdatePetStatus(ctx context.Context, petID uuid.UUID, status string) (*models.Pet, error) {
	if !models.ValidPetStatus(status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid status")
	}

	pet, err := s.pets.UpdateStatus(ctx, petID, status)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return nil, apperror.ErrPetNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if status == models.PetStatusReunited {
		s.notifyReunion(pet)
	}

	return pet, nil
}

// DeletePet удаляет объявление вместе с фотографиями.
func (s *AdminService) DeletePet(ctx context.Context, petID uuid.UUID) error {
	if err := s.pets.Delete(ctx, petID); err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return apperror.ErrPetNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	return nil
}

// UpdateUser применяет частичное модераторское обновление пользователя.
func (s *AdminService) UpdateUser(ctx context.Context, userID uuid.UUID, req dto.AdminUpdateUserRequest) (*models.User, error) {
	if req.Role != nil && !models.ValidUserRole(*req.Role) {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid role")
	}

	user, err := s.users.UpdateModeration(ctx, userID, req.Role, req.IsVerified)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return user, nil
}

// DeleteUser удаляет пользователя. Его объявления остаются с
// зафиксированными контактами.
func (s *AdminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	return nil
}

// notifyReunion шлёт письмо пользователю, чей email совпадает с
// контактным в объявлении. Получателя может не быть: контакты
// фиксируются на момент подачи.
func (s *AdminService) notifyReunion(pet *models.Pet) {
	email := pet.ContactEmail
	if email == "" {
		return
	}

	petCopy := *pet
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, repository.ErrUserNotFound) {
				logger.Log.WithError(err).Warn("не удалось найти получателя письма о воссоединении")
			}
			return
		}

		if err := s.mailer.SendReunionEmail(user.Email, user.Name, &petCopy); err != nil {
			logger.Log.WithError(err).WithField("email", user.Email).Error("не удалось отправить письмо о воссоединении")
		}
	})
}
