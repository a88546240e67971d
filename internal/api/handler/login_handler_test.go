package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/domain"
)

type stubGate struct {
	authenticateFn func(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error)
}

func (g *stubGate) Authenticate(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
	return g.authenticateFn(ctx, req)
}

func TestLoginHandler_RelaysUpstreamResponse(t *testing.T) {
	e := echo.New()
	header := http.Header{}
	header.Set("Set-Cookie", "sid=fresh")
	gate := &stubGate{authenticateFn: func(_ context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
		if req.Path != "/login" {
			t.Fatalf("unexpected path: %s", req.Path)
		}
		return &domain.ForwardResponse{StatusCode: http.StatusOK, Header: header, Body: []byte(`{"id":1}`)}, nil
	}}
	h := NewLoginHandler(gate)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"identifier":"a@b.fr","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"id":1}` {
		t.Fatalf("upstream body must be relayed verbatim, got %q", rec.Body.String())
	}
	if rec.Header().Get("Set-Cookie") != "sid=fresh" {
		t.Fatalf("session cookie must reach the caller")
	}
}

func TestLoginHandler_DeletedAccount(t *testing.T) {
	e := echo.New()
	gate := &stubGate{authenticateFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return nil, domain.ErrAccountDeleted
	}}
	h := NewLoginHandler(gate)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Login(c)
	if !errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted, got %v", err)
	}
}
