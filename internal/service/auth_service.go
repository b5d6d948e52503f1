package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/goroutine"
	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
	"github.com/petfinder/petfinder-backend/internal/repository"
	"github.com/petfinder/petfinder-backend/internal/validation"
)

// Срок жизни одноразового токена подтверждения email.
const verificationTokenTTL = 24 * time.Hour

// UserRepo описывает хранилище пользователей, нужное сервису аутентификации.
type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

// UserFinder покрывает минимум, нужный middleware для проверки токена.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService реализует регистрацию, вход и работу с профилем.
type AuthService struct {
	users  UserRepo
	tokens *TokenManager
	mailer Mailer
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserRepo, tokens *TokenManager, mailer Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: mailer}
}

// Register регистрирует пользователя и возвращает его вместе с JWT.
// Письмо подтверждения отправляется асинхронно, его сбой регистрацию
// не откатывает.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, string, error) {
	if err := validation.ValidateNonEmpty("name", req.Name); err != nil {
		return nil, "", apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("name", req.Name, validation.MinNameLength, validation.MaxNameLength); err != nil {
		return nil, "", apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, "", apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, "", apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		trimmed := strings.TrimSpace(*req.Phone)
		if err := validation.ValidatePhone(trimmed); err != nil {
			return nil, "", apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		phone = &trimmed
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", apperror.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if phone != nil {
		if _, err := s.users.GetByPhone(ctx, *phone); err == nil {
			return nil, "", apperror.ErrPhoneTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	verifyToken, err := newVerificationToken()
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	expires := time.Now().Add(verificationTokenTTL)

	user := &models.User{
		Name:                     strings.TrimSpace(req.Name),
		Email:                    email,
		Phone:                    phone,
		PasswordHash:             string(hash),
		Role:                     models.RoleUser,
		IsVerified:               false,
		VerificationToken:        &verifyToken,
		VerificationTokenExpires: &expires,
	}
	if req.Location != nil {
		user.LocationArea = req.Location.Area
		user.LocationCity = req.Location.City
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Гонка двух одновременных регистраций разрешается уникальными
		// индексами, ошибку переводим в тот же ответ, что и проверка выше.
		if taken := uniqueViolation(err); taken != nil {
			return nil, "", taken
		}
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	s.sendVerification(user, verifyToken)

	jwtToken, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return user, jwtToken, nil
}

// Login проверяет учётные данные и выпускает JWT. Ответ одинаков для
// неизвестного идентификатора и неверного пароля.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*models.User, string, error) {
	identifier := strings.TrimSpace(req.EmailOrPhone)
	if identifier == "" || req.Password == "" {
		return nil, "", apperror.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmailOrPhone(ctx, strings.ToLower(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperror.ErrInvalidCredentials
		}
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", apperror.ErrInvalidCredentials
	}

	// Отметка о входе не должна задерживать ответ и блокировать вход.
	userID := user.ID
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.users.UpdateLastLoginAt(ctx, userID); err != nil {
			logger.Log.WithError(err).Warn("не удалось обновить время последнего входа")
		}
	})

	jwtToken, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return user, jwtToken, nil
}

// VerifyEmail подтверждает email по одноразовому токену.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.ErrInvalidVerifyToken
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrInvalidVerifyToken
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return nil
}

// ResendVerification выпускает новый токен подтверждения и шлёт письмо.
func (s *AuthService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if user.IsVerified {
		return apperror.ErrAlreadyVerified
	}

	verifyToken, err := newVerificationToken()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if err := s.users.UpdateVerificationToken(ctx, user.ID, verifyToken, time.Now().Add(verificationTokenTTL)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	s.sendVerification(user, verifyToken)

	return nil
}

// GetProfile возвращает профиль пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}
	return user, nil
}

// UpdateProfile применяет частичное обновление профиля. Незаданные
// поля запроса не меняются.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validation.ValidateNonEmpty("name", name); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		if err := validation.ValidateLength("name", name, validation.MinNameLength, validation.MaxNameLength); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		user.Name = name
	}

	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		if trimmed == "" {
			user.Phone = nil
		} else {
			if err := validation.ValidatePhone(trimmed); err != nil {
				return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
			}
			if other, err := s.users.GetByPhone(ctx, trimmed); err == nil && other.ID != user.ID {
				return nil, apperror.ErrPhoneTaken
			} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
			}
			user.Phone = &trimmed
		}
	}

	if req.Location != nil {
		user.LocationArea = req.Location.Area
		user.LocationCity = req.Location.City
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if taken := uniqueViolation(err); taken != nil {
			return nil, taken
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "Something went wrong!")
	}

	return user, nil
}

// sendVerification отправляет письмо подтверждения в фоне.
func (s *AuthService) sendVerification(user *models.User, token string) {
	to, name := user.Email, user.Name
	goroutine.SafeGo(func() {
		if err := s.mailer.SendVerificationEmail(to, name, token); err != nil {
			logger.Log.WithError(err).WithField("email", to).Error("не удалось отправить письмо подтверждения")
		}
	})
}

// newVerificationToken генерирует криптослучайный токен подтверждения.
func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("verification token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// uniqueViolation переводит нарушение уникального индекса Postgres в
// доменную ошибку занятого email или телефона.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "phone") {
		return apperror.ErrPhoneTaken
	}
	return apperror.ErrEmailTaken
}
