package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterProductRoutes(r *gin.Engine, handler *ProductHandler) {
	productos := r.Group("/api/productos")
	{
		productos.POST("/create", handler.CreateProduct)
		productos.PUT("/Actualizar/:id", handler.UpdateProduct)
		productos.DELETE("/Eliminar/:id", handler.DeleteProduct)
		productos.GET("", handler.ListProducts)
		productos.GET("/:id", handler.GetProduct)
	}
}

// RegisterSupportRoutes añade /health y, si imageDir no está vacío, el estático /images.
func RegisterSupportRoutes(r *gin.Engine, imageDir string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if imageDir != "" {
		r.Static("/images", imageDir)
	}
}
