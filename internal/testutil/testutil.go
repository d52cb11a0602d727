// Package testutil provides shared test helpers for config files and generation fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// SetupTestConfig writes a config file that points the http backend at backendURL
// and keeps the cache and outputs under tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string, backendURL string) string {
	t.Helper()

	dirs := []string{"cache", "outputs"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`backend:
  provider: http
  http:
    base_url: %s
retry:
  max_attempts: 3
  base_delay: 1ms
  max_jitter: 1ms
cache:
  driver: file
  namespace: test_cache
  file:
    directory: %s
export:
  directory: %s
`,
		backendURL,
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "outputs"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// StudySetOption adjusts a fixture built by NewStudySet.
type StudySetOption func(*inference.GenerationResult)

// WithTest adds a test section with n questions.
func WithTest(n int) StudySetOption {
	return func(result *inference.GenerationResult) {
		result.Test = questions("test", n)
	}
}

// NewStudySet returns a valid result with n flashcards and n quiz questions, the way a backend answers:
// ids are blank and must be assigned by normalization.
func NewStudySet(n int, opts ...StudySetOption) inference.GenerationResult {
	result := inference.GenerationResult{
		Quiz: questions("quiz", n),
		Mindmap: inference.MindmapNode{
			Label: "Topic",
			Children: []inference.MindmapNode{
				{Label: "Subtopic", Content: "Details"},
			},
		},
	}
	for i := range n {
		result.Flashcards = append(result.Flashcards, inference.Flashcard{
			Question: fmt.Sprintf("question %d", i+1),
			Answer:   fmt.Sprintf("answer %d", i+1),
		})
	}
	for _, opt := range opts {
		opt(&result)
	}
	return result
}

func questions(prefix string, n int) []inference.QuizQuestion {
	var items []inference.QuizQuestion
	for i := range n {
		items = append(items, inference.QuizQuestion{
			Question:      fmt.Sprintf("%s question %d", prefix, i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
			Category:      prefix,
		})
	}
	return items
}
