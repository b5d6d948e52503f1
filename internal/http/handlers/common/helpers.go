package common

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petfinder/petfinder-backend/internal/http/middleware"
	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
)

var (
	// ErrNoIdentity возвращается, когда в контексте запроса нет пользователя.
	ErrNoIdentity = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID возвращается при ошибке разбора UUID.
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentUserID извлекает userID из контекста запроса.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrNoIdentity
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}

	return userID, nil
}

// CurrentUserRole извлекает роль пользователя из контекста запроса.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrNoIdentity
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrNoIdentity
	}

	return role, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// ParseIntQuery читает целочисленный query-параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// RespondError отправляет ошибку в формате клиента: {"message": "..."}.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// RespondAppError переводит доменную ошибку в HTTP ответ. Внутренние
// ошибки наружу не раскрываются.
func RespondAppError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	message := apperror.Message(err)
	if status >= 500 {
		logger.Log.WithError(err).WithField("path", c.FullPath()).Error("внутренняя ошибка обработчика")
		message = "Something went wrong!"
	}
	RespondError(c, status, message)
}
