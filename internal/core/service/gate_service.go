package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adomia/account-gate/internal/api/metrics"
	"github.com/adomia/account-gate/internal/core/domain"
	"github.com/adomia/account-gate/internal/core/ports"
)

// GateService enforces the deleted-account block on the login path. The
// block fires twice: before the upstream round trip, by the submitted email,
// and after a successful authentication, by whichever identity upstream
// reports. Upstream itself has no notion of a deleted account and will issue
// a valid session to anyone with the right password.
type GateService struct {
	repo    ports.TombstoneRepository
	gateway ports.UpstreamGateway
	log     zerolog.Logger
}

func NewGateService(repo ports.TombstoneRepository, gateway ports.UpstreamGateway, log zerolog.Logger) *GateService {
	return &GateService{repo: repo, gateway: gateway, log: log}
}

// Authenticate runs the pre-check, the upstream login, and the post-check in
// that order. The returned response, when non-nil, is relayed to the caller
// untouched.
func (s *GateService) Authenticate(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
	// Pre-check: a known-bad email never reaches upstream. This keeps the
	// denial deterministic and spares upstream the round trip.
	if email := submittedEmail(req.Body); email != "" {
		_, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			metrics.LoginDenialsTotal.WithLabelValues("pre").Inc()
			s.log.Info().Str("email", email).Msg("login blocked before upstream call")
			return nil, domain.ErrAccountDeleted
		case !errors.Is(err, domain.ErrTombstoneNotFound):
			return nil, fmt.Errorf("pre-check lookup: %w", err)
		}
	}

	resp, err := s.gateway.Forward(ctx, req)
	if err != nil {
		return nil, err
	}

	// Failed logins carry no identity worth checking; relay as-is.
	if !resp.Success() {
		return resp, nil
	}

	ident, ok := domain.ExtractIdentity(resp.Body)
	if !ok {
		return resp, nil
	}

	blocked, err := s.tombstoned(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("post-check lookup: %w", err)
	}
	if !blocked {
		return resp, nil
	}

	// Upstream just minted a session for a deleted account. Revoke it with
	// the cookie it set; failures are swallowed, the denial stands either way.
	if cookie := resp.SessionCookie(); cookie != "" {
		if err := s.gateway.Logout(ctx, cookie, req.Authorization); err != nil {
			s.log.Warn().Err(err).Str("external_user_id", ident.ExternalUserID).
				Msg("failed to revoke session of deleted account")
		}
	}

	metrics.LoginDenialsTotal.WithLabelValues("post").Inc()
	s.log.Info().Str("external_user_id", ident.ExternalUserID).
		Msg("login blocked after upstream authentication")
	return nil, domain.ErrAccountDeleted
}

// tombstoned checks the store by external id first, then by email. Either
// hit blocks the account.
func (s *GateService) tombstoned(ctx context.Context, ident domain.Identity) (bool, error) {
	if ident.ExternalUserID != "" {
		if _, err := s.repo.FindByExternalID(ctx, ident.ExternalUserID); err == nil {
			return true, nil
		} else if !errors.Is(err, domain.ErrTombstoneNotFound) {
			return false, err
		}
	}
	if ident.Email != "" {
		if _, err := s.repo.FindByEmail(ctx, ident.Email); err == nil {
			return true, nil
		} else if !errors.Is(err, domain.ErrTombstoneNotFound) {
			return false, err
		}
	}
	return false, nil
}

// submittedEmail peeks at the login body for an email field. The email is
// used exactly as received; lookups never normalize it.
func submittedEmail(body []byte) string {
	var creds struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &creds); err != nil {
		return ""
	}
	return creds.Email
}
