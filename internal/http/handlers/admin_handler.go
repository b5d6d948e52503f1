package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petfinder/petfinder-backend/internal/dto"
	"github.com/petfinder/petfinder-backend/internal/http/handlers/common"
	"github.com/petfinder/petfinder-backend/internal/service"
)

// AdminHandler предоставляет HTTP слой модерации.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// DashboardStats обрабатывает GET /api/admin/dashboard/stats.
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.admin.DashboardStats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DashboardResponse{Stats: *stats})
}

// ListPets обрабатывает GET /api/admin/pets.
func (h *AdminHandler) ListPets(c *gin.Context) {
	params := service.AdminPetListParams{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   common.ParseIntQuery(c, "page", 1),
		Limit:  common.ParseIntQuery(c, "limit", service.AdminPageSize),
	}

	page, err := h.admin.ListPets(c.Request.Context(), params)
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

// ListUsers обрабатывает GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, err := h.admin.ListUsers(
		c.Request.Context(),
		c.Query("search"),
		common.ParseIntQuery(c, "page", 1),
		common.ParseIntQuery(c, "limit", service.AdminPageSize),
	)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	users := make([]dto.UserResponse, 0, len(page.Users))
	for i := range page.Users {
		users = append(users, dto.NewUserResponse(&page.Users[i]))
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users:       users,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Total:       page.Total,
	})
}

// UpdatePetStatus обрабатывает PATCH /api/admin/pets/:id/status.
func (h *AdminHandler) UpdatePetStatus(c *gin.Context) {
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

	pet, err := h.admin.UpdatePetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPetResponse(pet))
}

// DeletePet обрабатывает DELETE /api/admin/pets/:id.
func (h *AdminHandler) DeletePet(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.admin.DeletePet(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Pet deleted successfully"})
}

// UpdateUser обрабатывает PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var req dto.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// DeleteUser обрабатывает DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
