package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/catalogo/internal/product/domain"
)

func TestSendDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validación", &domain.ValidationError{Field: "nombre", Reason: "must not be empty"}, http.StatusBadRequest},
		{"no encontrado envuelto", fmt.Errorf("get: %w", domain.ErrProductNotFound), http.StatusNotFound},
		{"duplicado", domain.ErrProductAlreadyExists, http.StatusConflict},
		{"transporte", domain.NewTransportError("publish", errors.New("closed")), http.StatusInternalServerError},
		{"desconocido", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			SendDomainError(c, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"].Message)
		})
	}
}
