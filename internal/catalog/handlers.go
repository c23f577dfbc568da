package catalog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Handlers contains the catalog HTTP handler methods
type Handlers struct {
	repo *CatalogRepo
}

// NewHandlers creates a new catalog handlers instance
func NewHandlers(repo *CatalogRepo) *Handlers {
	return &Handlers{repo: repo}
}

// RegisterRoutes registers the catalog endpoints on an API group
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/categories", h.ListCategories)
	g.GET("/items", h.ListItems)
	g.POST("/items", h.CreateItem)
}

// ListCategories handles GET /categories
func (h *Handlers) ListCategories(c echo.Context) error {
	categories, err := h.repo.ListCategories(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch categories")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// ListItems handles GET /items
func (h *Handlers) ListItems(c echo.Context) error {
	items, err := h.repo.ListItems(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch items")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch items")
	}
	return c.JSON(http.StatusOK, items)
}

// CreateItemRequest is the new listing request
type CreateItemRequest struct {
	Title      string `json:"title" validate:"required"`
	CategoryID int64  `json:"categoryId" validate:"required"`
	Image      string `json:"image"`
	Wants      string `json:"wants"`
	UserID     int64  `json:"userId" validate:"required"`
	Distance   string `json:"distance"`
	Condition  string `json:"condition"`
}

// CreateItem handles POST /items
func (h *Handlers) CreateItem(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID and Category ID are required")
	}

	item := &Item{
		Title:      req.Title,
		Image:      req.Image,
		Wants:      req.Wants,
		Distance:   req.Distance,
		Condition:  req.Condition,
		CategoryID: req.CategoryID,
		UserID:     req.UserID,
	}

	created, err := h.repo.InsertItem(c.Request().Context(), item)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return echo.NewHTTPError(http.StatusBadRequest, ErrBadReference.Error())
		}
		log.Error().Err(err).Msg("Failed to create item")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create item")
	}

	return c.JSON(http.StatusCreated, created)
}
