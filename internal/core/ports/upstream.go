package ports

import (
	"context"

	"github.com/adomia/account-gate/internal/core/domain"
)

// UpstreamGateway is the proxy's only window onto the upstream API. Forward
// is the generic relay; the named calls are the proxy-initiated requests the
// deletion and login flows need.
type UpstreamGateway interface {
	// Forward relays the request and returns the upstream response verbatim
	// (redirects included). A transport-level failure is returned as an error
	// wrapping domain.ErrUpstreamUnreachable.
	Forward(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error)
	// CurrentUser resolves the identity behind the given credentials.
	CurrentUser(ctx context.Context, cookie, authorization string) (*domain.ForwardResponse, error)
	// Logout invalidates the upstream session carried by the credentials.
	Logout(ctx context.Context, cookie, authorization string) error
	// DeleteUser asks upstream to remove or deactivate the account.
	DeleteUser(ctx context.Context, externalUserID, cookie, authorization string) error
}
