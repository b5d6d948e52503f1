package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/petfinder/petfinder-backend/internal/logger"
	"github.com/petfinder/petfinder-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки, сложенные хэндлерами в gin.Context.
// Большинство хэндлеров отвечают сами; сюда попадает то, что они не
// обработали, а также panic, перехваченный gin.Recovery.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("необработанная ошибка запроса")
		}

		status := apperror.HTTPStatus(err)
		message := apperror.Message(err)
		if status == http.StatusInternalServerError {
			message = "Something went wrong!"
		}

		c.JSON(status, gin.H{"message": message})
	}
}
