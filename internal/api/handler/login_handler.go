package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/ports"
)

// LoginHandler fronts the login path with the deleted-account gate. The
// request and, when allowed through, the upstream response are relayed
// verbatim; only a tombstone match replaces the response with a denial.
type LoginHandler struct {
	gate ports.LoginGate
}

func NewLoginHandler(gate ports.LoginGate) *LoginHandler {
	return &LoginHandler{gate: gate}
}

func (h *LoginHandler) Login(c echo.Context) error {
	req, err := forwardRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.gate.Authenticate(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return writeRelay(c, resp)
}
