package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/api/metrics"
	"github.com/adomia/account-gate/internal/core/domain"
)

const defaultTimeout = 15 * time.Second

// Config captures the settings for talking to the upstream API.
type Config struct {
	// BaseURL is the upstream origin, common path prefix included.
	BaseURL string
	// Timeout bounds every upstream round trip. Defaults to 15s.
	Timeout time.Duration
	// Proxy-initiated endpoints, relative to BaseURL.
	CurrentUserPath string
	LogoutPath      string
	UserDeletePath  string
	// AdminToken, when set, authenticates the best-effort user-delete call
	// instead of the caller's own credentials.
	AdminToken string
}

// Client relays requests to the upstream origin. Redirects are never
// followed: the raw 3xx goes back to the caller, whose own cookie jar has
// to drive any follow-up.
type Client struct {
	origin          string
	currentUserPath string
	logoutPath      string
	userDeletePath  string
	adminToken      string
	httpc           *http.Client
	log             zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		origin:          cfg.BaseURL,
		currentUserPath: cfg.CurrentUserPath,
		logoutPath:      cfg.LogoutPath,
		userDeletePath:  cfg.UserDeletePath,
		adminToken:      cfg.AdminToken,
		httpc: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
	if c.currentUserPath == "" {
		c.currentUserPath = "/users/me"
	}
	if c.logoutPath == "" {
		c.logoutPath = "/logout"
	}
	if c.userDeletePath == "" {
		c.userDeletePath = "/admin/users"
	}
	return c
}

// Forward relays the request through the generic header/body policy.
func (c *Client) Forward(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
	return c.do(ctx, "forward", req.Method, PlanRequest(c.origin, req))
}

// CurrentUser asks upstream who owns the given credentials.
func (c *Client) CurrentUser(ctx context.Context, cookie, authorization string) (*domain.ForwardResponse, error) {
	plan := Plan{URL: joinURL(c.origin, c.currentUserPath), Header: credentialHeader(cookie, authorization)}
	return c.do(ctx, "current_user", http.MethodGet, plan)
}

// Logout invalidates the upstream session behind the credentials. A non-2xx
// answer is reported as an error; callers on best-effort paths swallow it.
func (c *Client) Logout(ctx context.Context, cookie, authorization string) error {
	plan := Plan{URL: joinURL(c.origin, c.logoutPath), Header: credentialHeader(cookie, authorization)}
	resp, err := c.do(ctx, "logout", http.MethodPost, plan)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("logout: upstream answered %d", resp.StatusCode)
	}
	return nil
}

// DeleteUser asks upstream to remove the account. The configured admin
// token wins over the caller's credentials when present.
func (c *Client) DeleteUser(ctx context.Context, externalUserID, cookie, authorization string) error {
	header := credentialHeader(cookie, authorization)
	if c.adminToken != "" {
		header = http.Header{}
		header.Set("Authorization", "Bearer "+c.adminToken)
	}
	plan := Plan{URL: joinURL(c.origin, c.userDeletePath+"/"+externalUserID), Header: header}
	resp, err := c.do(ctx, "user_delete", http.MethodDelete, plan)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("user delete: upstream answered %d", resp.StatusCode)
	}
	return nil
}

// do executes a planned request. Transport failures map to
// domain.ErrUpstreamUnreachable with the real cause logged, never returned.
func (c *Client) do(ctx context.Context, endpoint, method string, plan Plan) (*domain.ForwardResponse, error) {
	var body io.Reader
	if len(plan.Body) > 0 {
		body = bytes.NewReader(plan.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, plan.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = plan.Header

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		c.log.Error().Err(err).Str("endpoint", endpoint).Str("method", method).
			Msg("upstream request failed")
		return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrUpstreamUnreachable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("upstream body read failed")
		return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrUpstreamUnreachable)
	}

	header := resp.Header.Clone()
	// The proxy neither re-chunks nor re-compresses, and the body is
	// replayed from a buffer, so these would lie to the caller.
	header.Del("Transfer-Encoding")
	header.Del("Content-Encoding")
	header.Del("Content-Length")

	return &domain.ForwardResponse{StatusCode: resp.StatusCode, Header: header, Body: raw}, nil
}

func credentialHeader(cookie, authorization string) http.Header {
	header := http.Header{}
	if cookie != "" {
		header.Set("Cookie", cookie)
	}
	if authorization != "" {
		header.Set("Authorization", authorization)
	}
	return header
}
