package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/petfinder/petfinder-backend/internal/models"
)

// ErrPetNotFound возвращается, когда объявление не найдено.
var ErrPetNotFound = errors.New("pet not found")

const petColumns = `id, user_id, name, type, breed, color, size, age, gender,
	description, status, location_area, location_city, lat, lng,
	date_reported, date_lost_or_found, contact_name, contact_email,
	contact_phone, reward, is_active, created_at, updated_at`

// PetFilter описывает условия выборки объявлений.
type PetFilter struct {
	Status     string
	Type       string
	Location   string
	Search     string
	UserID     *uuid.UUID
	OnlyActive bool
	Limit      int
	Offset     int
}

// PetRepository отвечает за работу с таблицами pets и pet_images.
type PetRepository struct {
	db *sqlx.DB
}

// NewPetRepository создаёт экземпляр репозитория.
func NewPetRepository(db *sqlx.DB) *PetRepository {
	return &PetRepository{db: db}
}

// Create сохраняет объявление вместе с фотографиями в одной транзакции.
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pet repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO pets (user_id, name, type, breed, color, size, age, gender,
			description, status, location_area, location_city, lat, lng,
			date_reported, date_lost_or_found, contact_name, contact_email,
			contact_phone, reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, is_active, created_at, updated_at
	`

	if err := tx.QueryRowxContext(
		ctx, query,
		pet.UserID, pet.Name, pet.Type, pet.Breed, pet.Color, pet.Size, pet.Age, pet.Gender,
		pet.Description, pet.Status, pet.LocationArea, pet.LocationCity, pet.Lat, pet.Lng,
		pet.DateReported, pet.DateLostOrFound, pet.ContactName, pet.ContactEmail,
		pet.ContactPhone, pet.Reward,
	).Scan(&pet.ID, &pet.IsActive, &pet.CreatedAt, &pet.UpdatedAt); err != nil {
		return fmt.Errorf("pet repository: create %w", err)
	}

	imageQuery := `
		INSERT INTO pet_images (pet_id, position, content_type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range pet.Images {
		img := &pet.Images[i]
		img.PetID = pet.ID
		img.Position = i
		if err := tx.QueryRowxContext(ctx, imageQuery, img.PetID, img.Position, img.ContentType, img.Data).Scan(&img.ID); err != nil {
			return fmt.Errorf("pet repository: create image %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pet repository: commit %w", err)
	}

	return nil
}

// GetByID возвращает объявление вместе с фотографиями.
func (r *PetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	query := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`
	if err := r.db.GetContext(ctx, &pet, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("pet repository: get by id %w", err)
	}

	if err := r.attachImages(ctx, []*models.Pet{&pet}); err != nil {
		return nil, err
	}

	return &pet, nil
}

// buildWhere собирает условия выборки. Нумерация аргументов сквозная,
// чтобы одну и ту же сборку использовали List и Count.
func buildWhere(filter PetFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argNum := 1

	if filter.OnlyActive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, filter.Type)
		argNum++
	}
	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("(location_area ILIKE $%d OR location_city ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Location+"%")
		argNum++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR breed ILIKE $%d OR contact_name ILIKE $%d OR location_area ILIKE $%d OR location_city ILIKE $%d)",
			argNum, argNum, argNum, argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	where := ""
	for i, cond := range conditions {
		if i == 0 {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	return where, args
}

// List возвращает страницу объявлений, новые сверху.
func (r *PetRepository) List(ctx context.Context, filter PetFilter) ([]models.Pet, error) {
	where, args := buildWhere(filter)

	query := `SELECT ` + petColumns + ` FROM pets` + where +
		fmt.Sprintf(` ORDER BY date_reported DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var pets []models.Pet
	if err := r.db.SelectContext(ctx, &pets, query, args...); err != nil {
		return nil, fmt.Errorf("pet repository: list %w", err)
	}

	refs := make([]*models.Pet, len(pets))
	for i := range pets {
		refs[i] = &pets[i]
	}
	if err := r.attachImages(ctx, refs); err != nil {
		return nil, err
	}

	return pets, nil
}

// Count возвращает количество объявлений, подходящих под фильтр.
func (r *PetRepository) Count(ctx context.Context, filter PetFilter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM pets`+where, args...); err != nil {
		return 0, fmt.Errorf("pet repository: count %w", err)
	}

	return count, nil
}

// ListByUser возвращает все объявления пользователя, новые сверху.
func (r *PetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	var pets []models.Pet
	query := `SELECT ` + petColumns + ` FROM pets WHERE user_id = $1 ORDER BY date_reported DESC`
	if err := r.db.SelectContext(ctx, &pets, query, userID); err != nil {
		return nil, fmt.Errorf("pet repository: list by user %w", err)
	}

	refs := make([]*models.Pet, len(pets))
	for i := range pets {
		refs[i] = &pets[i]
	}
	if err := r.attachImages(ctx, refs); err != nil {
		return nil, err
	}

	return pets, nil
}

// UpdateStatus меняет статус объявления и возвращает обновлённую запись.
func (r *PetRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Pet, error) {
	query := `
		UPDATE pets
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + petColumns

	var pet models.Pet
	if err := r.db.GetContext(ctx, &pet, query, status, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("pet repository: update status %w", err)
	}

	if err := r.attachImages(ctx, []*models.Pet{&pet}); err != nil {
		return nil, err
	}

	return &pet, nil
}

// Delete удаляет объявление. Фотографии удаляются каскадом.
func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pet repository: delete %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pet repository: delete rows affected %w", err)
	}
	if rows == 0 {
		return ErrPetNotFound
	}

	return nil
}

// Search ищет активные объявления по подстроке без учёта регистра.
func (r *PetRepository) Search(ctx context.Context, query string) ([]models.Pet, error) {
	sqlQuery := `SELECT ` + petColumns + ` FROM pets
		WHERE is_active = TRUE
			AND (name ILIKE $1 OR breed ILIKE $1 OR color ILIKE $1
				OR description ILIKE $1 OR location_area ILIKE $1 OR location_city ILIKE $1)
		ORDER BY date_reported DESC`

	var pets []models.Pet
	if err := r.db.SelectContext(ctx, &pets, sqlQuery, "%"+query+"%"); err != nil {
		return nil, fmt.Errorf("pet repository: search %w", err)
	}

	refs := make([]*models.Pet, len(pets))
	for i := range pets {
		refs[i] = &pets[i]
	}
	if err := r.attachImages(ctx, refs); err != nil {
		return nil, err
	}

	return pets, nil
}

// StatisticsByUser считает сводку по объявлениям пользователя одним
// запросом. Активными считаются потерянные и найденные, то есть все,
// кроме воссоединённых.
func (r *PetRepository) StatisticsByUser(ctx context.Context, userID uuid.UUID) (*models.PetStatistics, error) {
	query := `
		SELECT
			COUNT(*) AS total_reported,
			COUNT(*) FILTER (WHERE status = 'reunited') AS reunited_pets,
			COUNT(*) FILTER (WHERE status IN ('lost', 'found')) AS active_pets,
			COUNT(*) FILTER (WHERE status = 'lost') AS lost_pets,
			COUNT(*) FILTER (WHERE status = 'found') AS found_pets
		FROM pets
		WHERE user_id = $1
	`

	var stats models.PetStatistics
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("pet repository: statistics by user %w", err)
	}

	return &stats, nil
}

// CountAll возвращает общее количество объявлений.
func (r *PetRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM pets`); err != nil {
		return 0, fmt.Errorf("pet repository: count all %w", err)
	}
	return count, nil
}

// CountByStatus возвращает количество объявлений в заданном статусе.
func (r *PetRepository) CountByStatus(ctx context.Context, status string, onlyActive bool) (int, error) {
	query := `SELECT COUNT(*) FROM pets WHERE status = $1`
	if onlyActive {
		query += ` AND is_active = TRUE`
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("pet repository: count by status %w", err)
	}
	return count, nil
}

// CountReportedSince возвращает количество объявлений, поданных после отметки.
func (r *PetRepository) CountReportedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM pets WHERE date_reported >= $1`, since); err != nil {
		return 0, fmt.Errorf("pet repository: count reported since %w", err)
	}
	return count, nil
}

// attachImages подгружает фотографии для пачки объявлений одним запросом.
func (r *PetRepository) attachImages(ctx context.Context, pets []*models.Pet) error {
	if len(pets) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(pets))
	byID := make(map[uuid.UUID]*models.Pet, len(pets))
	for _, pet := range pets {
		ids = append(ids, pet.ID)
		byID[pet.ID] = pet
	}

	var images []models.PetImage
	query := `
		SELECT id, pet_id, position, content_type, data
		FROM pet_images
		WHERE pet_id = ANY($1)
		ORDER BY pet_id, position
	`
	if err := r.db.SelectContext(ctx, &images, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("pet repository: load images %w", err)
	}

	for _, img := range images {
		if pet, ok := byID[img.PetID]; ok {
			pet.Images = append(pet.Images, img)
		}
	}

	return nil
}
