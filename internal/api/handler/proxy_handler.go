package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/ports"
)

// ProxyHandler is the catch-all relay: no business logic, just the
// forwarder's header and body policy applied to whatever /api path the
// dedicated handlers did not claim.
type ProxyHandler struct {
	gateway ports.UpstreamGateway
}

func NewProxyHandler(gateway ports.UpstreamGateway) *ProxyHandler {
	return &ProxyHandler{gateway: gateway}
}

func (h *ProxyHandler) Relay(c echo.Context) error {
	req, err := forwardRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.gateway.Forward(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return writeRelay(c, resp)
}
