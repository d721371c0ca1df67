package github

import (
	"context"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// Ref identifies a repository on github.com.
type Ref struct {
	Owner string
	Name  string
}

func (r Ref) String() string {
	return r.Owner + "/" + r.Name
}

// Key is the case-insensitive identity used for caching.
func (r Ref) Key() string {
	return strings.ToLower(r.String())
}

// OriginRepo reports the github.com repository behind dir's "origin" remote.
// It returns false when dir is not a git checkout, has no origin, or the
// origin is not hosted on github.com.
func OriginRepo(ctx context.Context, dir string) (Ref, bool) {
	if _, err := exec.LookPath("git"); err != nil {
		return Ref{}, false
	}

	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(cmdCtx, "git", "-C", dir, "remote", "get-url", "origin").Output()
	if err != nil {
		return Ref{}, false
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL accepts the remote forms git prints for github.com:
//
//	https://github.com/owner/repo(.git)
//	git@github.com:owner/repo(.git)
//	ssh://git@github.com/owner/repo(.git)
func ParseRemoteURL(raw string) (Ref, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, false
	}

	var host, path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Ref{}, false
		}
		host = u.Hostname()
		path = u.Path
	} else {
		// scp-like syntax: [user@]host:path
		left, right, ok := strings.Cut(raw, ":")
		if !ok {
			return Ref{}, false
		}
		if _, h, ok := strings.Cut(left, "@"); ok {
			left = h
		}
		host = left
		path = right
	}

	host = strings.ToLower(host)
	if host != "github.com" && host != "www.github.com" {
		return Ref{}, false
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, false
	}
	return Ref{Owner: parts[0], Name: parts[1]}, true
}
