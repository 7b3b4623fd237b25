package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/catalogo/internal/product/domain"
)

// ErrorResponse es el cuerpo estándar de error.
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{"data": data})
}

func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": ErrorResponse{Message: message}})
}

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}

// SendDomainError traduce los errores del dominio de producto a su código HTTP.
// Los errores de transporte y los desconocidos no exponen el detalle.
func SendDomainError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorResponse{Message: vErr.Error(), Field: vErr.Field}})
	case errors.Is(err, domain.ErrProductNotFound):
		SendNotFound(c, "product not found")
	case errors.Is(err, domain.ErrProductAlreadyExists):
		SendError(c, http.StatusConflict, "product already exists")
	default:
		SendInternalServerError(c, "internal error")
	}
}
