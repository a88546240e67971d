package upstream

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adomia/account-gate/internal/core/domain"
)

// Plan is a fully resolved upstream request: target URL, the safelisted
// headers, and the exact body bytes to send. Planning is pure so the
// header and body policy stays testable without a network.
type Plan struct {
	URL    string
	Header http.Header
	Body   []byte
}

// PlanRequest maps an inbound ForwardRequest onto the upstream origin.
//
// Header policy: only Cookie, Authorization and Content-Type survive; Host
// is rewritten implicitly by targeting the origin. Body policy by content
// type: JSON is parsed and re-serialized, multipart and url-encoded bodies
// pass through raw, anything else with bytes passes through raw, and a
// body-capable request with no body at all becomes an empty JSON object so
// upstream never receives an ambiguous payload.
func PlanRequest(origin string, req domain.ForwardRequest) Plan {
	header := http.Header{}
	body := req.Body
	contentType := req.ContentType

	switch {
	case len(body) == 0:
		if bodyCapable(req.Method) {
			body = []byte("{}")
			contentType = "application/json"
		}
	case isJSON(contentType):
		body = reserializeJSON(body)
	}

	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	if req.Cookie != "" {
		header.Set("Cookie", req.Cookie)
	}
	if req.Authorization != "" {
		header.Set("Authorization", req.Authorization)
	}

	return Plan{URL: joinURL(origin, req.Path), Header: header, Body: body}
}

// reserializeJSON round-trips the body through the JSON codec, mirroring a
// body that was parsed at the edge. A body that does not parse is passed
// through untouched and left for upstream to reject.
func reserializeJSON(body []byte) []byte {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return body
	}
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return out
}

func isJSON(contentType string) bool {
	mt := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return strings.EqualFold(mt, "application/json")
}

// bodyCapable reports whether the method carries a request body. GET and
// HEAD relays stay body-less instead of receiving the empty-object default.
func bodyCapable(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return false
	}
	return true
}

func joinURL(origin, path string) string {
	origin = strings.TrimSuffix(origin, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}
