package output

import (
	"fmt"
	"os"
)

// WriteRoadmap writes text to path exactly as given, replacing any existing
// file. Empty text produces an empty file. It returns the bytes written.
func WriteRoadmap(path, text string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("roadmap path required")
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("write roadmap: %w", err)
	}
	return len(text), nil
}
