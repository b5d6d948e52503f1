package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
	"github.com/petfinder/petfinder-backend/internal/repository"
)

// Модераторские операции mockUserRepository, дополняют методы из
// auth_service_test.go до AdminUserRepo.

func (m *mockUserRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, user := range m.byID {
		if search != "" {
			phone := ""
			if user.Phone != nil {
				phone = *user.Phone
			}
			if !containsFold(user.Name, search) && !containsFold(user.Email, search) && !containsFold(phone, search) {
				continue
			}
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockUserRepository) Count(ctx context.Context, search string) (int, error) {
	users, err := m.List(ctx, search, 0, 0)
	return len(users), err
}

func (m *mockUserRepository) UpdateModeration(ctx context.Context, userID uuid.UUID, role *string, isVerified *bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if role != nil {
		user.Role = *role
	}
	if isVerified != nil {
		user.IsVerified = *isVerified
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, userID)
	delete(m.byEmail, user.Email)
	return nil
}

func (m *mockUserRepository) CountAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *mockUserRepository) CountVerified(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, user := range m.byID {
		if user.IsVerified {
			count++
		}
	}
	return count, nil
}

func (m *mockUserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, user := range m.byID {
		if !user.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// reunionMailer отдаёт адрес получателя в канал.
type reunionMailer struct {
	sent chan string
	fail bool
}

func (m *reunionMailer) SendVerificationEmail(to, name, token string) error { return nil }

func (m *reunionMailer) SendReunionEmail(to, name string, pet *models.Pet) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent <- to
	return nil
}

func addPet(repo *fakePetRepo, mutate func(*models.Pet)) *models.Pet {
	userID := uuid.New()
	pet := &models.Pet{
		UserID:          &userID,
		Name:            "Barsik",
		Type:            "cat",
		Breed:           "siberian",
		Color:           "gray",
		Size:            "medium",
		Age:             "adult",
		Gender:          "male",
		Description:     "Gray cat",
		Status:          models.PetStatusLost,
		LocationArea:    "Arbat",
		LocationCity:    "Moscow",
		IsActive:        true,
		DateReported:    time.Now(),
		DateLostOrFound: time.Now().Add(-24 * time.Hour),
		ContactName:     "Anna",
		ContactEmail:    "anna@example.com",
		ContactPhone:    "+79001234567",
	}
	if mutate != nil {
		mutate(pet)
	}
	wantInactive := !pet.IsActive

	_ = repo.Create(context.Background(), pet)

	// Create всегда включает объявление, выключенные правим после вставки.
	if wantInactive {
		repo.mu.Lock()
		repo.pets[pet.ID].IsActive = false
		repo.mu.Unlock()
		pet.IsActive = false
	}
	return pet
}

func TestAdminService_DashboardStats(t *testing.T) {
	petRepo := newFakePetRepo()
	userRepo := newMockUserRepository()
	svc := NewAdminService(petRepo, userRepo, &reunionMailer{})
	ctx := context.Background()

	addPet(petRepo, nil)
	addPet(petRepo, func(p *models.Pet) { p.Status = models.PetStatusFound })
	addPet(petRepo, func(p *models.Pet) { p.Status = models.PetStatusReunited })
	// Скрытое потерянное не попадает в счётчик lost, но попадает в total.
	addPet(petRepo, func(p *models.Pet) { p.IsActive = false })
	// Старое объявление выпадает из recent.
	addPet(petRepo, func(p *models.Pet) { p.DateReported = time.Now().Add(-40 * 24 * time.Hour) })

	userRepo.add(&models.User{ID: uuid.New(), Email: "a@example.com", IsVerified: true, CreatedAt: time.Now()})
	userRepo.add(&models.User{ID: uuid.New(), Email: "b@example.com", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)})

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalPets)
	assert.Equal(t, 2, stats.LostPets)
	assert.Equal(t, 1, stats.FoundPets)
	assert.Equal(t, 1, stats.ReunitedPets)
	assert.Equal(t, 4, stats.RecentPets)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.VerifiedUsers)
	assert.Equal(t, 1, stats.RecentUsers)
}

func TestAdminService_ListPetsIncludesInactive(t *testing.T) {
	petRepo := newFakePetRepo()
	svc := NewAdminService(petRepo, newMockUserRepository(), &reunionMailer{})

	addPet(petRepo, nil)
	addPet(petRepo, func(p *models.Pet) { p.IsActive = false })

	page, err := svc.ListPets(context.Background(), AdminPetListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Pets, 2)
}

func TestAdminService_ListPetsSearch(t *testing.T) {
	petRepo := newFakePetRepo()
	svc := NewAdminService(petRepo, newMockUserRepository(), &reunionMailer{})

	addPet(petRepo, func(p *models.Pet) { p.ContactName = "Boris" })
	addPet(petRepo, nil)

	page, err := svc.ListPets(context.Background(), AdminPetListParams{Search: "boris"})
	require.NoError(t, err)
	require.Len(t, page.Pets, 1)
	assert.Equal(t, "Boris", page.Pets[0].ContactName)
}

func TestAdminService_UpdatePetStatusSendsReunionEmail(t *testing.T) {
	petRepo := newFakePetRepo()
	userRepo := newMockUserRepository()
	mailer := &reunionMailer{sent: make(chan string, 1)}
	svc := NewAdminService(petRepo, userRepo, mailer)
	ctx := context.Background()

	userRepo.add(&models.User{ID: uuid.New(), Name: "Anna", Email: "anna@example.com"})
	pet := addPet(petRepo, nil)

	updated, err := svc.UpdatePetStatus(ctx, pet.ID, models.PetStatusReunited)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusReunited, updated.Status)

	select {
	case to := <-mailer.sent:
		assert.Equal(t, "anna@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatalf("письмо о воссоединении не отправлено")
	}
}

func TestAdminService_UpdatePetStatusNoRecipient(t *testing.T) {
	petRepo := newFakePetRepo()
	mailer := &reunionMailer{sent: make(chan string, 1)}
	svc := NewAdminService(petRepo, newMockUserRepository(), mailer)

	// Контактный email не принадлежит ни одному пользователю.
	pet := addPet(petRepo, func(p *models.Pet) { p.ContactEmail = "ghost@example.com" })

	updated, err := svc.UpdatePetStatus(context.Background(), pet.ID, models.PetStatusReunited)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusReunited, updated.Status)

	select {
	case to := <-mailer.sent:
		t.Fatalf("письмо не должно отправляться, ушло на %s", to)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAdminService_UpdatePetStatusMailFailureIgnored(t *testing.T) {
	petRepo := newFakePetRepo()
	userRepo := newMockUserRepository()
	svc := NewAdminService(petRepo, userRepo, &reunionMailer{fail: true})

	userRepo.add(&models.User{ID: uuid.New(), Email: "anna@example.com"})
	pet := addPet(petRepo, nil)

	updated, err := svc.UpdatePetStatus(context.Background(), pet.ID, models.PetStatusReunited)
	require.NoError(t, err)
	assert.Equal(t, models.PetStatusReunited, updated.Status)
}

func TestAdminService_UpdatePetStatusValidation(t *testing.T) {
	svc := NewAdminService(newFakePetRepo(), newMockUserRepository(), &reunionMailer{})

	_, err := svc.UpdatePetStatus(context.Background(), uuid.New(), "adopted")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpdatePetStatus(context.Background(), uuid.New(), models.PetStatusFound)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdminService_DeletePet(t *testing.T) {
	petRepo := newFakePetRepo()
	svc := NewAdminService(petRepo, newMockUserRepository(), &reunionMailer{})
	ctx := context.Background()

	pet := addPet(petRepo, nil)
	require.NoError(t, svc.DeletePet(ctx, pet.ID))

	err := svc.DeletePet(ctx, pet.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdminService_UpdateUserPartial(t *testing.T) {
	userRepo := newMockUserRepository()
	svc := NewAdminService(newFakePetRepo(), userRepo, &reunionMailer{})
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "anna@example.com", Role: models.RoleUser}
	userRepo.add(user)

	verified := true
	updated, err := svc.UpdateUser(ctx, user.ID, dto.AdminUpdateUserRequest{IsVerified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
	assert.Equal(t, models.RoleUser, updated.Role)

	role := models.RoleAdmin
	updated, err = svc.UpdateUser(ctx, user.ID, dto.AdminUpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.True(t, updated.IsVerified)

	bad := "superuser"
	_, err = svc.UpdateUser(ctx, user.ID, dto.AdminUpdateUserRequest{Role: &bad})
	assert.True(t, apperror.IsValidation(err))
}

func TestAdminService_DeleteUser(t *testing.T) {
	userRepo := newMockUserRepository()
	svc := NewAdminService(newFakePetRepo(), userRepo, &reunionMailer{})
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "anna@example.com"}
	userRepo.add(user)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	err := svc.DeleteUser(ctx, user.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAdminService_ListUsersSearch(t *testing.T) {
	userRepo := newMockUserRepository()
	svc := NewAdminService(newFakePetRepo(), userRepo, &reunionMailer{})

	userRepo.add(&models.User{ID: uuid.New(), Name: "Anna", Email: "anna@example.com"})
	userRepo.add(&models.User{ID: uuid.New(), Name: "Boris", Email: "boris@example.com"})

	page, err := svc.ListUsers(context.Background(), "ANNA", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "Anna", page.Users[0].Name)
	assert.Equal(t, 1, page.Total)

	if !strings.Contains(page.Users[0].Email, "@") {
		t.Fatalf("ожидался email пользователя")
	}
}
