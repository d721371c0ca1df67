package github

import (
	"context"
	"os"
	"os/exec"
	"testing"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   Ref
		wantOK bool
	}{
		{raw: "https://github.com/octocat/hello-world.git", want: Ref{Owner: "octocat", Name: "hello-world"}, wantOK: true},
		{raw: "https://github.com/octocat/hello-world", want: Ref{Owner: "octocat", Name: "hello-world"}, wantOK: true},
		{raw: "https://www.github.com/octocat/hello-world/", want: Ref{Owner: "octocat", Name: "hello-world"}, wantOK: true},
		{raw: "git@github.com:octocat/hello-world.git", want: Ref{Owner: "octocat", Name: "hello-world"}, wantOK: true},
		{raw: "ssh://git@github.com/octocat/hello-world.git", want: Ref{Owner: "octocat", Name: "hello-world"}, wantOK: true},
		{raw: "https://gitlab.com/octocat/hello-world.git"},
		{raw: "git@bitbucket.org:octocat/hello-world.git"},
		{raw: "https://github.com/octocat"},
		{raw: "https://github.com/octocat/hello-world/tree/main"},
		{raw: "/srv/git/repo.git"},
		{raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseRemoteURL(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseRemoteURL(%q) ok=%v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("ParseRemoteURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRefKey(t *testing.T) {
	r := Ref{Owner: "OctoCat", Name: "Hello-World"}
	if r.String() != "OctoCat/Hello-World" {
		t.Fatalf("String() = %q", r.String())
	}
	if r.Key() != "octocat/hello-world" {
		t.Fatalf("Key() = %q", r.Key())
	}
}

func TestOriginRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(), "GIT_CONFIG_NOSYSTEM=1", "HOME="+dir)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}

	if _, ok := OriginRepo(context.Background(), dir); ok {
		t.Fatalf("expected no origin for a plain directory")
	}

	run("init", "-q")
	if _, ok := OriginRepo(context.Background(), dir); ok {
		t.Fatalf("expected no origin before remote add")
	}

	run("remote", "add", "origin", "git@github.com:acme/widgets.git")
	got, ok := OriginRepo(context.Background(), dir)
	if !ok {
		t.Fatalf("expected origin to resolve")
	}
	if got != (Ref{Owner: "acme", Name: "widgets"}) {
		t.Fatalf("OriginRepo = %+v", got)
	}
}
