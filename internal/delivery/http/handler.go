package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/churbro/backend/internal/domain"
	"github.com/churbro/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// Version is reported by the health check
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	datasets *usecase.DatasetService
}

// NewHandler creates a new HTTP handler; a nil service makes data endpoints answer 503
func NewHandler(datasets *usecase.DatasetService) *Handler {
	return &Handler{datasets: datasets}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "churbro-backend",
		"version": Version,
	})
}

// ListProducts returns the published products, optionally filtered by
// ?store=, ?deal=true and ?q=
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	filter := usecase.ProductFilter{
		Store: c.Query("store"),
		Query: c.Query("q"),
	}
	if raw := c.Query("deal"); raw != "" {
		deal, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deal must be true or false"})
			return
		}
		filter.DealOnly = deal
	}

	products, err := h.datasets.Products(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(products),
		"products": products,
	})
}

// ListStores returns per-store product counts
func (h *Handler) ListStores(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	stores, err := h.datasets.Stores(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// GetMetadata returns the metadata of the published dataset
func (h *Handler) GetMetadata(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	meta, err := h.datasets.Metadata(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.datasets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset service not configured"})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrDatasetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no dataset has been published yet"})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read dataset"})
}
