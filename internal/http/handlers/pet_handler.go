package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/http/handlers/common"
	"github.com/petfinder/petfinder-backend/internal/models"
	"github.com/petfinder/petfinder-backend/internal/service"
)

// Ограничения загрузки фотографий.
const (
	MaxImagesPerPet = 5
	MaxImageSize    = 5 * 1024 * 1024
)

// PetHandler предоставляет HTTP слой для объявлений.
type PetHandler struct {
	pets *service.PetService
}

// NewPetHandler создаёт хэндлер.
func NewPetHandler(pets *service.PetService) *PetHandler {
	return &PetHandler{pets: pets}
}

// List обрабатывает GET /api/pets.
func (h *PetHandler) List(c *gin.Context) {
	params := service.PetListParams{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		Location: c.Query("location"),
		Page:     common.ParseIntQuery(c, "page", 1),
		Limit:    common.ParseIntQuery(c, "limit", service.DefaultPageSize),
	}

	page, err := h.pets.List(c.Request.Context(), params)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PetListResponse{
		Pets:        dto.NewPetResponses(page.Pets),
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Total:       page.Total,
	})
}

// Get обрабатывает GET /api/pets/:id.
func (h *PetHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	pet, err := h.pets.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPetResponse(pet))
}

// Create обрабатывает POST /api/pets. Форма multipart: JSON в поле
// petData и до пяти изображений в поле images.
func (h *PetHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	petData := c.PostForm("petData")
	if petData == "" {
		common.RespondError(c, http.StatusBadRequest, "petData field is required")
		return
	}

	var req dto.CreatePetRequest
	if err := json.Unmarshal([]byte(petData), &req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "petData must be valid JSON")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := form.File["images"]
	if len(files) > MaxImagesPerPet {
		common.RespondError(c, http.StatusBadRequest, "A maximum of 5 images is allowed")
		return
	}

	images := make([]models.PetImage, 0, len(files))
	for _, file := range files {
		if file.Size > MaxImageSize {
			common.RespondError(c, http.StatusBadRequest, "Each image must be at most 5MB")
			return
		}

		src, err := file.Open()
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}

		// Тип определяется по содержимому, заголовкам клиента не доверяем.
		kind, err := filetype.Match(data)
		if err != nil || kind == filetype.Unknown || !strings.HasPrefix(kind.MIME.Value, "image/") {
			common.RespondError(c, http.StatusBadRequest, "Only image files are allowed!")
			return
		}

		images = append(images, models.PetImage{
			ContentType: kind.MIME.Value,
			Data:        data,
		})
	}

	pet, err := h.pets.Create(c.Request.Context(), userID, req, images)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPetResponse(pet))
}

// MyPets обрабатывает GET /api/pets/user/my-pets.
func (h *PetHandler) MyPets(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	pets, stats, err := h.pets.MyPets(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MyPetsResponse{
		Pets:       dto.NewPetResponses(pets),
		Statistics: stats,
	})
}

// UpdateStatus обрабатывает PATCH /api/pets/:id/status.
func (h *PetHandler) UpdateStatus(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var req dto.UpdatePetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Идентичность может отсутствовать: маршрут без middleware в
	// режиме открытого обновления.
	var actorID *uuid.UUID
	actorRole := ""
	if userID, err := common.CurrentUserID(c); err == nil {
		actorID = &userID
	}
	if role, err := common.CurrentUserRole(c); err == nil {
		actorRole = role
	}

	pet, err := h.pets.UpdateStatus(c.Request.Context(), id, req.Status, actorID, actorRole)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPetResponse(pet))
}

// Search обрабатывает GET /api/pets/search/:query.
func (h *PetHandler) Search(c *gin.Context) {
	pets, err := h.pets.Search(c.Request.Context(), c.Param("query"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPetResponses(pets))
}
