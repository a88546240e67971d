package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/domain"
	"github.com/adomia/account-gate/internal/core/ports"
)

// deletionSuccessMessage is returned for every successful deletion, repeat
// calls included, so the caller cannot tell the two apart.
const deletionSuccessMessage = "Votre compte a bien été supprimé."

// DeletionHandler serves DELETE /api/users/me.
type DeletionHandler struct {
	deleter ports.AccountDeleter
}

func NewDeletionHandler(deleter ports.AccountDeleter) *DeletionHandler {
	return &DeletionHandler{deleter: deleter}
}

func (h *DeletionHandler) DeleteMe(c echo.Context) error {
	cookie := c.Request().Header.Get("Cookie")
	authorization := c.Request().Header.Get("Authorization")
	if cookie == "" && authorization == "" {
		return domain.ErrAuthRequired
	}

	if err := h.deleter.DeleteCurrent(c.Request().Context(), cookie, authorization); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": deletionSuccessMessage})
}
