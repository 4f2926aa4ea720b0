package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// redirectURI returns the canonical redirect_uri for r: scheme, host and path
// of the inbound request with the query string and fragment removed.
// It must produce the same string on both legs of a flow.
func redirectURI(r *http.Request, trustForwarded bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}

	if trustForwarded {
		if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
			scheme = strings.ToLower(proto)
		}
		if fwdHost := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwdHost != "" {
			host = fwdHost
		}
	}

	u := url.URL{
		Scheme:  scheme,
		Host:    host,
		Path:    r.URL.Path,
		RawPath: r.URL.RawPath,
	}
	return u.String()
}

// firstHeaderValue takes the client-most entry of a comma separated proxy header.
func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// queryData copies the inbound query into a diagnostic payload.
// Single values stay strings; repeated keys become string slices.
func queryData(q url.Values) map[string]any {
	data := make(map[string]any, len(q))
	for key, values := range q {
		if len(values) == 1 {
			data[key] = values[0]
		} else {
			data[key] = append([]string(nil), values...)
		}
	}
	return data
}
