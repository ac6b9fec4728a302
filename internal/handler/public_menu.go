package handler

// public_menu.go exposes the guest-facing menu.  These routes apply no
// session or role middleware and return only available items; responses are
// served through the Redis response cache when one is configured.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tablekeep/restaurant-manager/internal/repository"
)

// PublicMenuHandler serves sanitized menu data for unauthenticated visitors.
type PublicMenuHandler struct {
	Menu *repository.MenuRepo
}

func NewPublicMenuHandler(m *repository.MenuRepo) *PublicMenuHandler {
	return &PublicMenuHandler{Menu: m}
}

// GetMenu handles GET /api/public/menu.
func (h *PublicMenuHandler) GetMenu(c echo.Context) error {
	items, err := h.Menu.List(c.Request().Context(), true)
	if err != nil {
		c.Logger().Errorf("list public menu: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
