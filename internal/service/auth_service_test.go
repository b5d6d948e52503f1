package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
	"github.com/petfinder/petfinder-backend/internal/repository"
)

// mockUserRepository реализует UserRepo для тестов.
type mockUserRepository struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *mockUserRepository) add(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.add(user)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Phone != nil && *user.Phone == phone {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error) {
	if user, err := m.GetByEmail(ctx, identifier); err == nil {
		return user, nil
	}
	return m.GetByPhone(ctx, identifier)
}

func (m *mockUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.VerificationToken != nil && *user.VerificationToken == token &&
			user.VerificationTokenExpires != nil && user.VerificationTokenExpires.After(time.Now()) {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpires = nil
	return nil
}

func (m *mockUserRepository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.VerificationToken = &token
	user.VerificationTokenExpires = &expires
	return nil
}

func (m *mockUserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	*stored = *user
	return nil
}

// mockMailer запоминает отправленные письма.
type mockMailer struct {
	mu            sync.Mutex
	verifications []string
	failAll       bool
}

func (m *mockMailer) SendVerificationEmail(to, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("smtp unavailable")
	}
	m.verifications = append(m.verifications, to)
	return nil
}

func (m *mockMailer) SendReunionEmail(to, name string, pet *models.Pet) error {
	return nil
}

func newAuthService(repo *mockUserRepository, mailer Mailer) *AuthService {
	return NewAuthService(repo, NewTokenManager("test-secret", time.Hour), mailer)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})

	ctx := context.Background()
	phone := "+7 900 123-45-67"
	user, token, err := service.Register(ctx, dto.RegisterRequest{
		Name:     "Anna",
		Email:    "Anna@Example.com",
		Phone:    &phone,
		Password: "password123",
		Location: &models.Location{Area: "Arbat", City: "Moscow"},
	})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}
	if token == "" {
		t.Fatalf("ожидался JWT")
	}
	if user.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}
	if user.Email != "anna@example.com" {
		t.Fatalf("email должен приводиться к нижнему регистру, получили %q", user.Email)
	}
	if user.IsVerified {
		t.Fatalf("новый пользователь не должен быть подтверждён")
	}
	if user.VerificationToken == nil || *user.VerificationToken == "" {
		t.Fatalf("токен подтверждения должен быть выпущен")
	}

	_, loginToken, err := service.Login(ctx, dto.LoginRequest{
		EmailOrPhone: "anna@example.com",
		Password:     "password123",
	})
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if loginToken == "" {
		t.Fatalf("ожидался JWT при входе")
	}
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	phone := "+79001234567"
	if _, _, err := service.Register(ctx, dto.RegisterRequest{
		Name: "Anna", Email: "anna@example.com", Phone: &phone, Password: "password123",
	}); err != nil {
		t.Fatalf("первая регистрация вернула ошибку: %v", err)
	}

	if _, _, err := service.Register(ctx, dto.RegisterRequest{
		Name: "Boris", Email: "anna@example.com", Password: "password123",
	}); !errors.Is(err, apperror.ErrEmailTaken) {
		t.Fatalf("ожидался ErrEmailTaken, получили %v", err)
	}

	if _, _, err := service.Register(ctx, dto.RegisterRequest{
		Name: "Boris", Email: "boris@example.com", Phone: &phone, Password: "password123",
	}); !errors.Is(err, apperror.ErrPhoneTaken) {
		t.Fatalf("ожидался ErrPhoneTaken, получили %v", err)
	}
}

func TestAuthService_RegisterSucceedsWhenMailFails(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{failAll: true})

	_, token, err := service.Register(context.Background(), dto.RegisterRequest{
		Name: "Anna", Email: "anna@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("сбой почты не должен ломать регистрацию: %v", err)
	}
	if token == "" {
		t.Fatalf("ожидался JWT")
	}
}

func TestAuthService_LoginUniformError(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.add(&models.User{
		ID:           uuid.New(),
		Email:        "anna@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	})

	_, _, unknownErr := service.Login(ctx, dto.LoginRequest{EmailOrPhone: "nobody@example.com", Password: "password123"})
	_, _, wrongPassErr := service.Login(ctx, dto.LoginRequest{EmailOrPhone: "anna@example.com", Password: "wrong"})

	if !errors.Is(unknownErr, apperror.ErrInvalidCredentials) {
		t.Fatalf("неизвестный email: ожидался ErrInvalidCredentials, получили %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, apperror.ErrInvalidCredentials) {
		t.Fatalf("неверный пароль: ожидался ErrInvalidCredentials, получили %v", wrongPassErr)
	}
	// Ответ не должен раскрывать, что именно не совпало.
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("ошибки должны быть неразличимы: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	token := "valid-token"
	expires := time.Now().Add(time.Hour)
	user := &models.User{
		ID:                       uuid.New(),
		Email:                    "anna@example.com",
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	}
	repo.add(user)

	if err := service.VerifyEmail(ctx, "valid-token"); err != nil {
		t.Fatalf("verify вернул ошибку: %v", err)
	}
	if !user.IsVerified {
		t.Fatalf("пользователь должен стать подтверждённым")
	}
	if user.VerificationToken != nil {
		t.Fatalf("одноразовый токен должен быть очищен")
	}

	// Повторное использование того же токена.
	if err := service.VerifyEmail(ctx, "valid-token"); !errors.Is(err, apperror.ErrInvalidVerifyToken) {
		t.Fatalf("ожидался ErrInvalidVerifyToken, получили %v", err)
	}
}

func TestAuthService_VerifyEmailExpiredToken(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})

	token := "expired-token"
	expires := time.Now().Add(-time.Minute)
	repo.add(&models.User{
		ID:                       uuid.New(),
		Email:                    "anna@example.com",
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
	})

	err := service.VerifyEmail(context.Background(), "expired-token")
	if !errors.Is(err, apperror.ErrInvalidVerifyToken) {
		t.Fatalf("просроченный токен: ожидался ErrInvalidVerifyToken, получили %v", err)
	}
}

func TestAuthService_ResendVerification(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	oldToken := "old-token"
	expires := time.Now().Add(time.Hour)
	user := &models.User{
		ID:                       uuid.New(),
		Email:                    "anna@example.com",
		VerificationToken:        &oldToken,
		VerificationTokenExpires: &expires,
	}
	repo.add(user)

	if err := service.ResendVerification(ctx, user.ID); err != nil {
		t.Fatalf("resend вернул ошибку: %v", err)
	}
	if user.VerificationToken == nil || *user.VerificationToken == "old-token" {
		t.Fatalf("ожидался новый токен подтверждения")
	}

	verified := &models.User{ID: uuid.New(), Email: "boris@example.com", IsVerified: true}
	repo.add(verified)
	if err := service.ResendVerification(ctx, verified.ID); !errors.Is(err, apperror.ErrAlreadyVerified) {
		t.Fatalf("ожидался ErrAlreadyVerified, получили %v", err)
	}
}

func TestAuthService_UpdateProfilePartial(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	phone := "+79001234567"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Anna",
		Email:        "anna@example.com",
		Phone:        &phone,
		LocationArea: "Arbat",
		LocationCity: "Moscow",
	}
	repo.add(user)

	name := "Anna Petrova"
	updated, err := service.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Name: &name})
	if err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}
	if updated.Name != "Anna Petrova" {
		t.Fatalf("имя должно обновиться, получили %q", updated.Name)
	}
	if updated.Phone == nil || *updated.Phone != phone {
		t.Fatalf("телефон не должен меняться при частичном обновлении")
	}
	if updated.LocationArea != "Arbat" || updated.LocationCity != "Moscow" {
		t.Fatalf("местоположение не должно меняться при частичном обновлении")
	}
}

func TestAuthService_UpdateProfilePhoneConflict(t *testing.T) {
	repo := newMockUserRepository()
	service := newAuthService(repo, &mockMailer{})
	ctx := context.Background()

	takenPhone := "+79001111111"
	repo.add(&models.User{ID: uuid.New(), Email: "boris@example.com", Phone: &takenPhone})

	user := &models.User{ID: uuid.New(), Name: "Anna", Email: "anna@example.com"}
	repo.add(user)

	_, err := service.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Phone: &takenPhone})
	if !errors.Is(err, apperror.ErrPhoneTaken) {
		t.Fatalf("ожидался ErrPhoneTaken, получили %v", err)
	}
}
