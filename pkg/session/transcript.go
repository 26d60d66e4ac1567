package session

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteTranscript serializes the full conversation history to a timestamped
// .convo file under dir and returns the path written. The artifact is
// write-once; callers treat a failure here as non-fatal since the final
// answer has already been produced.
func WriteTranscript(dir string, s *Session) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	name := fmt.Sprintf("llamapanel-%s.convo", s.StartedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(s.History(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	return path, nil
}
