package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/lodgeworks/backoffice/internal/admin/service"
)

// decodeJSON parses the request body into v. Unknown fields are rejected so
// client typos surface as errors instead of silently doing nothing.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// requestMeta extracts the client IP and user agent for audit entries. The
// first X-Forwarded-For hop wins when present; the TCP peer address is the
// fallback.
func requestMeta(r *http.Request) service.RequestMeta {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return service.RequestMeta{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}
