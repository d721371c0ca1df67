// Package httplog provides an http.RoundTripper that writes one line per request
// and response when verbose logging is enabled.
package httplog

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport wraps Base and logs to W with the given Label, e.g.
//
//	[verbose] gemini api: POST https://...
//	[verbose] gemini api: 200 OK (1.203s)
//
// Logs go to W (typically stderr) so structured output on stdout stays clean.
type Transport struct {
	Base  http.RoundTripper
	W     io.Writer
	Label string
}

func New(base http.RoundTripper, w io.Writer, label string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, W: w, Label: label}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.W != nil {
		_, _ = fmt.Fprintf(t.W, "[verbose] %s: %s %s\n", t.Label, req.Method, redactedURL(req))
	}
	resp, err := t.Base.RoundTrip(req)
	dur := time.Since(start)
	if t.W != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.W, "[verbose] %s: error after %s: %v\n", t.Label, dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.W, "[verbose] %s: %d %s (%s)\n", t.Label, resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

// redactedURL drops the query string; some APIs accept credentials there.
func redactedURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	if u.RawQuery != "" {
		u.RawQuery = "<redacted>"
	}
	return u.String()
}
