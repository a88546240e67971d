package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/core/domain"
)

type stubTombstoneRepo struct {
	byID    map[string]*domain.Tombstone
	byEmail map[string]*domain.Tombstone

	created   []*domain.Tombstone
	createErr error
	findErr   error
}

func newStubTombstoneRepo() *stubTombstoneRepo {
	return &stubTombstoneRepo{
		byID:    make(map[string]*domain.Tombstone),
		byEmail: make(map[string]*domain.Tombstone),
	}
}

func (r *stubTombstoneRepo) add(t *domain.Tombstone) {
	r.byID[t.ExternalUserID] = t
	if t.Email != "" {
		r.byEmail[t.Email] = t
	}
}

func (r *stubTombstoneRepo) FindByExternalID(_ context.Context, id string) (*domain.Tombstone, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if ts, ok := r.byID[id]; ok {
		return ts, nil
	}
	return nil, domain.ErrTombstoneNotFound
}

func (r *stubTombstoneRepo) FindByEmail(_ context.Context, email string) (*domain.Tombstone, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if ts, ok := r.byEmail[email]; ok {
		return ts, nil
	}
	return nil, domain.ErrTombstoneNotFound
}

func (r *stubTombstoneRepo) Create(_ context.Context, t *domain.Tombstone) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byID[t.ExternalUserID]; ok {
		return domain.ErrTombstoneExists
	}
	r.add(t)
	r.created = append(r.created, t)
	return nil
}

func (r *stubTombstoneRepo) List(_ context.Context, _, _ int64) ([]domain.Tombstone, error) {
	out := make([]domain.Tombstone, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, *t)
	}
	return out, nil
}

type stubGateway struct {
	forwardFn     func(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error)
	currentUserFn func(ctx context.Context, cookie, authorization string) (*domain.ForwardResponse, error)

	forwardCalls int
	logoutCalls  int
	logoutCookie string
	logoutErr    error
	deleteCalls  int
	deletedIDs   []string
	deleteErr    error
}

func (g *stubGateway) Forward(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
	g.forwardCalls++
	return g.forwardFn(ctx, req)
}

func (g *stubGateway) CurrentUser(ctx context.Context, cookie, authorization string) (*domain.ForwardResponse, error) {
	return g.currentUserFn(ctx, cookie, authorization)
}

func (g *stubGateway) Logout(_ context.Context, cookie, _ string) error {
	g.logoutCalls++
	g.logoutCookie = cookie
	return g.logoutErr
}

func (g *stubGateway) DeleteUser(_ context.Context, id, _, _ string) error {
	g.deleteCalls++
	g.deletedIDs = append(g.deletedIDs, id)
	return g.deleteErr
}

func loginRequest(body string) domain.ForwardRequest {
	return domain.ForwardRequest{
		Method:      http.MethodPost,
		Path:        "/login",
		ContentType: "application/json",
		Body:        []byte(body),
	}
}

func okResponse(body string, header http.Header) *domain.ForwardResponse {
	if header == nil {
		header = http.Header{}
	}
	return &domain.ForwardResponse{StatusCode: http.StatusOK, Header: header, Body: []byte(body)}
}

func TestGateService_PreCheckBlocksWithoutUpstreamCall(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.add(&domain.Tombstone{ExternalUserID: "42", Email: "gone@x.com"})
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		t.Fatalf("upstream must not be called for a tombstoned email")
		return nil, nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"gone@x.com","password":"p"}`))
	if !errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted, got %v", err)
	}
	if gw.forwardCalls != 0 {
		t.Fatalf("expected zero upstream calls, got %d", gw.forwardCalls)
	}
}

func TestGateService_CleanAccountRelaysUpstreamResponse(t *testing.T) {
	repo := newStubTombstoneRepo()
	upstream := okResponse(`{"id":"42","email":"a@x.com"}`, nil)
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return upstream, nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	resp, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"a@x.com","password":"p"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != upstream {
		t.Fatalf("expected the upstream response to be relayed unchanged")
	}
	if len(repo.created) != 0 {
		t.Fatalf("login must never write tombstones")
	}
}

func TestGateService_PostCheckBlocksByIDAndRevokesSession(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.add(&domain.Tombstone{ExternalUserID: "42"})
	header := http.Header{}
	header.Add("Set-Cookie", "sid=abc123; Path=/; HttpOnly")
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return okResponse(`{"id":"42","email":"new-mail@x.com"}`, header), nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"new-mail@x.com","password":"p"}`))
	if !errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted, got %v", err)
	}
	if gw.logoutCalls != 1 {
		t.Fatalf("expected the freshly issued session to be revoked")
	}
	if gw.logoutCookie != "sid=abc123" {
		t.Fatalf("unexpected logout cookie: %q", gw.logoutCookie)
	}
}

func TestGateService_PostCheckBlocksByNestedEmail(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.add(&domain.Tombstone{ExternalUserID: "old-99", Email: "hidden@x.com"})
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return okResponse(`{"user":{"id":"new-1","email":"hidden@x.com"}}`, nil), nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	// Login via username, so the pre-check has nothing to match on.
	_, err := svc.Authenticate(context.Background(), loginRequest(`{"username":"ghost","password":"p"}`))
	if !errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted, got %v", err)
	}
}

func TestGateService_LogoutFailureStillDenies(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.add(&domain.Tombstone{ExternalUserID: "42"})
	header := http.Header{}
	header.Add("Set-Cookie", "sid=abc")
	gw := &stubGateway{
		forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
			return okResponse(`{"id":"42"}`, header), nil
		},
		logoutErr: errors.New("upstream hiccup"),
	}
	svc := NewGateService(repo, gw, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"x@x.com","password":"p"}`))
	if !errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected ErrAccountDeleted despite logout failure, got %v", err)
	}
}

func TestGateService_UpstreamFailureRelayedUntouched(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.findErr = nil
	denied := &domain.ForwardResponse{StatusCode: http.StatusUnauthorized, Header: http.Header{}, Body: []byte(`{"error":"bad credentials"}`)}
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return denied, nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	resp, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"a@x.com","password":"wrong"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != denied {
		t.Fatalf("expected the upstream 401 to pass through")
	}
}

func TestGateService_TransportErrorPropagates(t *testing.T) {
	repo := newStubTombstoneRepo()
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		return nil, domain.ErrUpstreamUnreachable
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"a@x.com","password":"p"}`))
	if !errors.Is(err, domain.ErrUpstreamUnreachable) {
		t.Fatalf("expected ErrUpstreamUnreachable, got %v", err)
	}
}

func TestGateService_StoreFailurePropagates(t *testing.T) {
	repo := newStubTombstoneRepo()
	repo.findErr = errors.New("store down")
	gw := &stubGateway{forwardFn: func(context.Context, domain.ForwardRequest) (*domain.ForwardResponse, error) {
		t.Fatalf("upstream must not be called when the store is failing")
		return nil, nil
	}}
	svc := NewGateService(repo, gw, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), loginRequest(`{"email":"a@x.com","password":"p"}`))
	if err == nil || errors.Is(err, domain.ErrAccountDeleted) {
		t.Fatalf("expected a store failure, got %v", err)
	}
}
