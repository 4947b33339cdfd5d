package middleware

import (
	"net/http"
	"strings"

	"github.com/Wikid82/chimera/backend/internal/util"
)

const maxLoggedValue = 200

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"cookie":              {},
	"set-cookie":          {},
	"proxy-authorization": {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
	"sec-websocket-key":   {},
}

// SanitizeHeaders returns header values safe to log: credentials are
// redacted, everything else is stripped of control characters and truncated.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
			out[k] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, util.Truncate(util.SanitizeForLog(v), maxLoggedValue))
		}
		out[k] = clean
	}
	return out
}

// SanitizePath drops the query string and makes the path safe to log.
func SanitizePath(p string) string {
	if i := strings.IndexByte(p, '?'); i != -1 {
		p = p[:i]
	}
	return util.Truncate(util.SanitizeForLog(p), maxLoggedValue)
}
