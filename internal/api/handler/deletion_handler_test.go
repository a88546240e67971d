package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/adomia/account-gate/internal/core/domain"
)

type stubDeleter struct {
	deleteFn func(ctx context.Context, cookie, authorization string) error
	calls    int
}

func (d *stubDeleter) DeleteCurrent(ctx context.Context, cookie, authorization string) error {
	d.calls++
	return d.deleteFn(ctx, cookie, authorization)
}

func TestDeletionHandler_Success(t *testing.T) {
	e := echo.New()
	deleter := &stubDeleter{deleteFn: func(_ context.Context, cookie, _ string) error {
		if cookie != "sid=abc" {
			t.Fatalf("credentials not forwarded, got cookie %q", cookie)
		}
		return nil
	}}
	h := NewDeletionHandler(deleter)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req.Header.Set("Cookie", "sid=abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DeleteMe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["message"] != "Votre compte a bien été supprimé." {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestDeletionHandler_NoCredentials(t *testing.T) {
	e := echo.New()
	deleter := &stubDeleter{deleteFn: func(context.Context, string, string) error { return nil }}
	h := NewDeletionHandler(deleter)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.DeleteMe(c)
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if deleter.calls != 0 {
		t.Fatalf("service must not be called without credentials")
	}
}

func TestDeletionHandler_ServiceErrorBubbles(t *testing.T) {
	e := echo.New()
	deleter := &stubDeleter{deleteFn: func(context.Context, string, string) error {
		return domain.ErrUpstreamUnreachable
	}}
	h := NewDeletionHandler(deleter)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.DeleteMe(c)
	if !errors.Is(err, domain.ErrUpstreamUnreachable) {
		t.Fatalf("expected ErrUpstreamUnreachable, got %v", err)
	}
}
