package domain

import (
	"errors"
	"net/http"
)

var ErrUpstreamUnreachable = errors.New("upstream unreachable")

// ForwardRequest is an inbound request reduced to the fields the proxy is
// allowed to propagate upstream. Everything not represented here (client IPs,
// tracing headers, hop-by-hop headers) is dropped on purpose.
type ForwardRequest struct {
	Method string
	// Path is the inbound path beyond the /api prefix, including the raw
	// query string when present.
	Path          string
	ContentType   string
	Cookie        string
	Authorization string
	// Body is the raw inbound body. A nil body is relayed as an empty JSON
	// object so upstream never receives an ambiguous payload.
	Body []byte
}

// ForwardResponse is an upstream response ready to be replayed to the caller.
// Header no longer contains Transfer-Encoding or Content-Encoding; the body
// is the fully read raw bytes.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Success reports whether the upstream answered with a 2xx status.
func (r *ForwardResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// SessionCookie flattens the Set-Cookie headers of a response into a Cookie
// header value, so a session issued by upstream can be handed straight back
// to it (e.g. to revoke a login that just succeeded).
func (r *ForwardResponse) SessionCookie() string {
	resp := http.Response{Header: r.Header}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return ""
	}
	out := ""
	for i, c := range cookies {
		if i > 0 {
			out += "; "
		}
		out += c.Name + "=" + c.Value
	}
	return out
}
