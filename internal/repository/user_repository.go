package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/petfinder/petfinder-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, phone, password_hash, role, is_verified,
	verification_token, verification_token_expires,
	location_area, location_city, last_login_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, role, is_verified,
			verification_token, verification_token_expires, location_area, location_city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Email, user.Phone, user.PasswordHash, user.Role, user.IsVerified,
		user.VerificationToken, user.VerificationTokenExpires, user.LocationArea, user.LocationCity,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByPhone возвращает пользователя по телефону.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	if err := r.db.GetContext(ctx, &user, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by phone %w", err)
	}

	return &user, nil
}

// GetByEmailOrPhone ищет пользователя по любому из идентификаторов входа.
func (r *UserRepository) GetByEmailOrPhone(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR phone = $1`
	if err := r.db.GetContext(ctx, &user, query, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email or phone %w", err)
	}

	return &user, nil
}

// GetByVerificationToken ищет пользователя с действующим токеном подтверждения.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_token = $1 AND verification_token_expires > NOW()`
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by verification token %w", err)
	}

	return &user, nil
}

// MarkVerified ставит флаг подтверждения и очищает одноразовый токен.
func (r *UserRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE,
			verification_token = NULL,
			verification_token_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("user repository: mark verified %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateVerificationToken выпускает новый токен подтверждения.
func (r *UserRepository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	query := `
		UPDATE users
		SET verification_token = $1, verification_token_expires = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, token, expires, userID)
	if err != nil {
		return fmt.Errorf("user repository: update verification token %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}

// UpdateProfile сохраняет имя, телефон и местоположение пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, location_area = $3, location_city = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Phone, user.LocationArea, user.LocationCity, user.ID,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}

	return nil
}

// List возвращает страницу пользователей. Поиск идёт по имени, email и
// телефону без учёта регистра.
func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}

	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}

	return users, nil
}

// Count возвращает количество пользователей, подходящих под поиск.
func (r *UserRepository) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	args := []interface{}{}

	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("user repository: count %w", err)
	}

	return count, nil
}

// UpdateModeration меняет роль и/или флаг верификации. Незаданные поля
// не трогаются.
func (r *UserRepository) UpdateModeration(ctx context.Context, userID uuid.UUID, role *string, isVerified *bool) (*models.User, error) {
	query := `
		UPDATE users
		SET role = COALESCE($1, role),
			is_verified = COALESCE($2, is_verified),
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, role, isVerified, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update moderation %w", err)
	}

	return &user, nil
}

// Delete удаляет пользователя. Его объявления остаются: контактные
// данные в них зафиксированы на момент подачи.
func (r *UserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: delete rows affected %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// CountAll возвращает общее количество пользователей.
func (r *UserRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("user repository: count all %w", err)
	}
	return count, nil
}

// CountVerified возвращает количество подтверждённых пользователей.
func (r *UserRepository) CountVerified(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE is_verified = TRUE`); err != nil {
		return 0, fmt.Errorf("user repository: count verified %w", err)
	}
	return count, nil
}

// CountCreatedSince возвращает количество пользователей, созданных после отметки.
func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, since); err != nil {
		return 0, fmt.Errorf("user repository: count created since %w", err)
	}
	return count, nil
}
