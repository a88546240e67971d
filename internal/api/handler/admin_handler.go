package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/domain"
	"github.com/adomia/account-gate/internal/core/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AdminHandler exposes the operator surface: token issuance and the
// read-only tombstone audit listing. There is deliberately no route that
// mutates or removes a tombstone.
type AdminHandler struct {
	auth ports.OpsAuthService
	repo ports.TombstoneRepository
}

func NewAdminHandler(auth ports.OpsAuthService, repo ports.TombstoneRepository) *AdminHandler {
	return &AdminHandler{auth: auth, repo: repo}
}

type adminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.auth.Login(c.Request().Context(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

type tombstoneView struct {
	ExternalUserID string          `json:"external_user_id"`
	Email          string          `json:"email,omitempty"`
	RecordedAt     string          `json:"recorded_at"`
	Snapshot       json.RawMessage `json:"snapshot_payload,omitempty"`
}

func (h *AdminHandler) ListTombstones(c echo.Context) error {
	limit := queryInt(c, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	tombstones, err := h.repo.List(c.Request().Context(), int64(limit), int64(offset))
	if err != nil {
		return err
	}

	views := make([]tombstoneView, 0, len(tombstones))
	for _, t := range tombstones {
		views = append(views, newTombstoneView(t))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tombstones": views,
		"count":      len(views),
	})
}

func newTombstoneView(t domain.Tombstone) tombstoneView {
	v := tombstoneView{
		ExternalUserID: t.ExternalUserID,
		Email:          t.Email,
		RecordedAt:     t.RecordedAt.UTC().Format(time.RFC3339),
	}
	// The snapshot is opaque; it is only embedded when it happens to be
	// valid JSON, otherwise the listing would become unparseable.
	if json.Valid(t.SnapshotPayload) {
		v.Snapshot = json.RawMessage(t.SnapshotPayload)
	}
	return v
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
