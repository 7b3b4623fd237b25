package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davicafu/catalogo/internal/product/application"
	"github.com/davicafu/catalogo/internal/product/domain"
	"github.com/davicafu/catalogo/pkg/utils"
)

const maxImageBytes = 5 << 20

// ProductService es lo que el handler necesita de la capa de aplicación.
type ProductService interface {
	CreateProduct(ctx context.Context, in application.ProductInput) (uuid.UUID, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in application.ProductInput) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// ProductHandler expone los comandos y consultas de producto por HTTP.
type ProductHandler struct {
	service ProductService
	images  domain.ImageStorage
	log     *zap.Logger
}

// NewProductHandler acepta images == nil; entonces las subidas multipart se rechazan.
func NewProductHandler(service ProductService, images domain.ImageStorage, log *zap.Logger) *ProductHandler {
	return &ProductHandler{service: service, images: images, log: log}
}

// productRequest sirve tanto para JSON como para multipart/form-data.
type productRequest struct {
	Name     string          `json:"nombre" form:"nombre"`
	Price    decimal.Decimal `json:"precioBase" form:"-"`
	Category string          `json:"categoria" form:"categoria"`
	ImageURL string          `json:"imagenUrl" form:"imagenUrl"`
	Status   string          `json:"estado" form:"estado"`
	OwnerID  string          `json:"idUsuario" form:"idUsuario"`
}

func (r productRequest) toInput() application.ProductInput {
	return application.ProductInput{
		Name:     r.Name,
		Price:    r.Price,
		Category: r.Category,
		ImageURL: r.ImageURL,
		Status:   r.Status,
		OwnerID:  r.OwnerID,
	}
}

// ---------------- Handlers ----------------

// CreateProduct POST /api/productos/create
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, uploaded, ok := h.bindProduct(c)
	if !ok {
		return
	}

	id, err := h.service.CreateProduct(c.Request.Context(), req.toInput())
	if err != nil {
		h.discardUpload(c.Request.Context(), uploaded)
		utils.SendDomainError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, gin.H{"id": id})
}

// UpdateProduct PUT /api/productos/Actualizar/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, uploaded, ok := h.bindProduct(c)
	if !ok {
		return
	}

	if err := h.service.UpdateProduct(c.Request.Context(), id, req.toInput()); err != nil {
		h.discardUpload(c.Request.Context(), uploaded)
		utils.SendDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteProduct DELETE /api/productos/Eliminar/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		utils.SendDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListProducts GET /api/productos
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Error("Error listando productos", zap.Error(err))
		utils.SendDomainError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, products)
}

// GetProduct GET /api/productos/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.SendDomainError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, p)
}

// ---------------- Helpers ----------------

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}

// bindProduct lee el cuerpo según el Content-Type. En multipart, el fichero
// "imagen" se sube y su URL sustituye a imagenUrl.
func (h *ProductHandler) bindProduct(c *gin.Context) (productRequest, string, bool) {
	var req productRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendBadRequest(c, err.Error())
			return req, "", false
		}
		return req, "", true
	}

	if err := c.ShouldBind(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return req, "", false
	}
	price, err := decimal.NewFromString(c.PostForm("precioBase"))
	if err != nil {
		utils.SendBadRequest(c, "invalid precioBase")
		return req, "", false
	}
	req.Price = price

	file, err := c.FormFile("imagen")
	if err != nil {
		// sin fichero: se usa imagenUrl tal cual
		return req, "", true
	}
	if h.images == nil {
		utils.SendBadRequest(c, "image uploads are disabled")
		return req, "", false
	}
	if file.Size > maxImageBytes {
		utils.SendBadRequest(c, "image too large")
		return req, "", false
	}

	f, err := file.Open()
	if err != nil {
		utils.SendBadRequest(c, "could not read image")
		return req, "", false
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request.Context(), file.Filename, f)
	if err != nil {
		h.log.Error("❌ Error subiendo imagen", zap.String("filename", file.Filename), zap.Error(err))
		utils.SendInternalServerError(c, "could not store image")
		return req, "", false
	}
	req.ImageURL = url
	return req, url, true
}

// discardUpload borra la imagen subida si el comando no prosperó.
func (h *ProductHandler) discardUpload(ctx context.Context, url string) {
	if url == "" || h.images == nil {
		return
	}
	if err := h.images.Delete(context.WithoutCancel(ctx), url); err != nil {
		h.log.Warn("No se pudo borrar la imagen huérfana", zap.String("url", url), zap.Error(err))
	}
}
