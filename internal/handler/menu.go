package handler // menu handlers cover the staff-facing CRUD over menu items

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/model"
	"github.com/tablekeep/restaurant-manager/internal/repository"
)

// MenuHandler bundles the menu repository for the protected menu endpoints.
// Role enforcement happens in middleware: owners and managers may write,
// staff may only read.
type MenuHandler struct {
	Menu *repository.MenuRepo
}

func NewMenuHandler(m *repository.MenuRepo) *MenuHandler { return &MenuHandler{Menu: m} }

type menuItemReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  uint32 `json:"price_cents"`
	IsAvailable *bool  `json:"is_available"`
}

func (r *menuItemReq) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
}

func (r *menuItemReq) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if len(r.Name) > 255 {
		return "name is too long"
	}
	if r.PriceCents == 0 {
		return "price_cents must be positive"
	}
	return ""
}

// CreateItem handles POST /api/menu.
func (h *MenuHandler) CreateItem(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.normalize()
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	item := &model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		IsAvailable: available,
	}
	if err := h.Menu.Create(c.Request().Context(), item); err != nil {
		c.Logger().Errorf("create menu item: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create menu item"})
	}
	return c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /api/menu and includes unavailable items so staff
// can see the full catalogue.
func (h *MenuHandler) ListItems(c echo.Context) error {
	items, err := h.Menu.List(c.Request().Context(), false)
	if err != nil {
		c.Logger().Errorf("list menu items: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateItem handles PUT /api/menu/:id.
func (h *MenuHandler) UpdateItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.normalize()
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	current, err := h.Menu.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrMenuItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	current.Name = req.Name
	current.Description = req.Description
	current.Category = req.Category
	current.PriceCents = req.PriceCents
	if req.IsAvailable != nil {
		current.IsAvailable = *req.IsAvailable
	}
	if err := h.Menu.Update(c.Request().Context(), &current); err != nil {
		if err == repository.ErrMenuItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		c.Logger().Errorf("update menu item: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, current)
}

// DeleteItem handles DELETE /api/menu/:id.
func (h *MenuHandler) DeleteItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Menu.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrMenuItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		c.Logger().Errorf("delete menu item: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
