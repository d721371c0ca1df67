package cli

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func withoutEnv(keys ...string) []string {
	out := make([]string, 0, len(os.Environ()))
	for _, e := range os.Environ() {
		drop := false
		for _, key := range keys {
			if strings.HasPrefix(e, key+"=") {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, e)
		}
	}
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildRoadmapperBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "roadmapper-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/roadmapper")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build roadmapper binary: %v; output=%s", err, string(out))
	}

	return outPath
}

// runBinary runs the binary in an empty working directory (so no .env or
// config file is picked up) without any API keys in the environment.
func runBinary(t *testing.T, binary string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = withoutEnv("GEMINI_API_KEY", "GOOGLE_API_KEY", "TARGET_REPO")

	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	return string(out), exitErr.ProcessState.ExitCode()
}

func sampleRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("Hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".git", "config"), []byte("[core]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return root
}

func TestPlan_ExitCode3_WhenAPIKeyMissing(t *testing.T) {
	binary := buildRoadmapperBinary(t)
	root := sampleRepo(t)

	out, code := runBinary(t, binary, "plan", root)
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, out)
	}
	if !strings.Contains(out, "Gemini API key is required") {
		t.Fatalf("expected API key message; output=%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "ROADMAP.md")); !os.IsNotExist(err) {
		t.Fatalf("ROADMAP.md must not be written without an API key")
	}
}

func TestPlan_ExitCode3_WhenConsoleFormatInvalid(t *testing.T) {
	binary := buildRoadmapperBinary(t)

	out, code := runBinary(t, binary, "plan", "--dry-run", "--console-format", "xml", sampleRepo(t))
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d; output=%s", code, out)
	}
	if !strings.Contains(out, "unsupported --console-format") {
		t.Fatalf("expected validation message; output=%s", out)
	}
}

func TestPlan_DryRun_PrintsContextWithoutAPIKey(t *testing.T) {
	binary := buildRoadmapperBinary(t)
	root := sampleRepo(t)

	out, code := runBinary(t, binary, "plan", "--dry-run", root)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output=%s", code, out)
	}
	for _, want := range []string{"## REPOSITORY SCAN: " + root, "- README.md", "#### FILE: README.md", "[DRY-RUN]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q; output=%s", want, out)
		}
	}
	if strings.Contains(out, "[core]") {
		t.Fatalf(".git contents leaked into the context; output=%s", out)
	}
}

func TestPlan_DryRun_MissingTargetExitsOne(t *testing.T) {
	binary := buildRoadmapperBinary(t)

	out, code := runBinary(t, binary, "plan", "--dry-run", filepath.Join(t.TempDir(), "nope"))
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d; output=%s", code, out)
	}
	if !strings.Contains(out, "target not found") {
		t.Fatalf("expected target-not-found message; output=%s", out)
	}
}

func TestContext_PrintsContext(t *testing.T) {
	binary := buildRoadmapperBinary(t)
	root := sampleRepo(t)

	out, code := runBinary(t, binary, "context", root)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output=%s", code, out)
	}
	want := "## REPOSITORY SCAN: " + root + "\n\n### FILE STRUCTURE:\n- README.md\n"
	if !strings.HasPrefix(out, want) {
		t.Fatalf("unexpected context; output=%s", out)
	}
}

func TestVersion_PrintsBuildInfo(t *testing.T) {
	binary := buildRoadmapperBinary(t)

	out, code := runBinary(t, binary, "version")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output=%s", code, out)
	}
	if !strings.HasPrefix(out, "roadmapper dev\n") {
		t.Fatalf("unexpected version output: %s", out)
	}
}

func TestPlan_Help_DocumentsOutputAndExitCodes(t *testing.T) {
	binary := buildRoadmapperBinary(t)

	out, code := runBinary(t, binary, "plan", "--help")
	if code != 0 {
		t.Fatalf("expected zero exit; output=%s", out)
	}

	// Regression guard: command help must remain agent-friendly and document
	// machine-readable output + exit status semantics.
	required := []string{
		"Output:",
		"Exit codes:",
		"NDJSON mode emits",
		"run.started",
		"target.result",
		"run.finished",
		"GEMINI_API_KEY",
	}
	for _, r := range required {
		if !strings.Contains(out, r) {
			t.Fatalf("expected plan --help to contain %q; output=%s", r, out)
		}
	}
}
