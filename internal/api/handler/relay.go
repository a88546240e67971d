package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/domain"
)

const apiPrefix = "/api"

// forwardRequest reduces the inbound request to the descriptor the upstream
// forwarder accepts: method, path+query beyond the /api prefix, the
// safelisted headers, and the raw body.
func forwardRequest(c echo.Context) (domain.ForwardRequest, error) {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return domain.ForwardRequest{}, echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}

	path := strings.TrimPrefix(req.URL.Path, apiPrefix)
	if path == "" {
		path = "/"
	}
	if q := req.URL.RawQuery; q != "" {
		path += "?" + q
	}

	return domain.ForwardRequest{
		Method:        req.Method,
		Path:          path,
		ContentType:   req.Header.Get("Content-Type"),
		Cookie:        req.Header.Get("Cookie"),
		Authorization: req.Header.Get("Authorization"),
		Body:          body,
	}, nil
}

// writeRelay replays an upstream response to the caller: every header the
// forwarder kept, the exact status code, and the body as raw bytes. Headers
// are added, not set, so multiple Set-Cookie values survive.
func writeRelay(c echo.Context, resp *domain.ForwardResponse) error {
	out := c.Response().Header()
	for key, values := range resp.Header {
		for _, v := range values {
			out.Add(key, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)
	_, err := c.Response().Write(resp.Body)
	return err
}
