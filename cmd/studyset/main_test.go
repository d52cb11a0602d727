package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studyset/internal/export"
	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/resilience"
	"github.com/at-ishikawa/studyset/internal/testutil"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantLevel slog.Level
	}{
		{
			name:      "debug mode enabled",
			debugMode: true,
			wantLevel: slog.LevelDebug,
		},
		{
			name:      "debug mode disabled",
			debugMode: false,
			wantLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogger(tt.debugMode)
			logger := slog.Default()
			assert.NotNil(t, logger)
			assert.Equal(t, tt.wantLevel <= slog.LevelDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCommand(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, command := range root.Commands() {
		names = append(names, command.Name())
	}
	assert.ElementsMatch(t, []string{"generate", "chat", "explain", "speak", "cache", "migrate"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestNewMigrateCommand(t *testing.T) {
	cmd := newMigrateCommand()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Equal(t, "Migration commands", cmd.Short)
	assert.True(t, cmd.HasSubCommands())
}

func TestCacheKeyCommand(t *testing.T) {
	configPath := testutil.SetupTestConfig(t, t.TempDir(), "http://127.0.0.1:9000")

	root := newRootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"--config", configPath, "cache", "key", "--text", "photosynthesis"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "test_cache:-1430815326\n", stdout.String())
}

func TestGenerateCommand(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		runs      int
		wantCalls int32
		wantErr   error
	}{
		{
			name:      "second run is served from the free-tier cache",
			status:    http.StatusOK,
			body:      testutil.NewStudySet(2),
			runs:      2,
			wantCalls: 1,
		},
		{
			name:   "rate limit exhaustion",
			status: http.StatusTooManyRequests,
			body: map[string]any{"error": map[string]any{
				"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota exceeded",
			}},
			runs:      1,
			wantCalls: 3,
			wantErr:   resilience.ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/study-sets", r.URL.Path)
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer backend.Close()
			configPath := testutil.SetupTestConfig(t, t.TempDir(), backend.URL)

			for range tt.runs {
				root := newRootCommand()
				var stdout bytes.Buffer
				root.SetOut(&stdout)
				root.SetArgs([]string{"--config", configPath, "generate", "--text", "Cells make ATP.", "--format", "json", "--stdout"})

				err := root.Execute()
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					continue
				}
				require.NoError(t, err)

				var got export.Document
				require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
				assert.Equal(t, "Cells make ATP.", got.Title)
				require.Len(t, got.Flashcards, 2)
				assert.NotEmpty(t, got.Flashcards[0].ID)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestGenerateCommand_WritesFile(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(testutil.NewStudySet(1, testutil.WithTest(1)))
	}))
	defer backend.Close()
	tmpDir := t.TempDir()
	configPath := testutil.SetupTestConfig(t, tmpDir, backend.URL)

	root := newRootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"--config", configPath, "generate", "--text", "Cells make ATP.", "--title", "Cell Energy"})

	require.NoError(t, root.Execute())
	want := filepath.Join(tmpDir, "outputs", "cell-energy.md")
	assert.Contains(t, stdout.String(), want)
	contents, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "# Cell Energy")
	assert.Contains(t, string(contents), "## Test")
}

func TestPrintError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited",
			err:  &resilience.Error{Operation: "GenerateStudySet", Kind: resilience.KindRateLimited, Attempts: 5, Err: errors.New("429")},
			want: "The system is busy right now. Please wait a moment and try again.\n",
		},
		{
			name: "overloaded",
			err:  &resilience.Error{Operation: "GenerateStudySet", Kind: resilience.KindOverloaded, Attempts: 5, Err: errors.New("503")},
			want: "Something went wrong while contacting the study assistant. Please try again.\n",
		},
		{
			name: "other errors are shown as is",
			err:  errors.New("unknown cache driver"),
			want: "failed to execute a command: unknown cache driver\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// docxFixture returns a minimal zip laid out like a Word document.
func docxFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		file, err := writer.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = file.Write([]byte("<xml/>"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "pdf",
			data: []byte("%PDF-1.4\n"),
			want: "application/pdf",
		},
		{
			name: "png",
			data: []byte("\x89PNG\r\n\x1a\n"),
			want: "image/png",
		},
		{
			name: "plain text drops the charset",
			data: []byte("Cells make ATP."),
			want: "text/plain",
		},
		{
			name: "word document is not a plain zip",
			data: docxFixture(t),
			want: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMIMEType(tt.data))
		})
	}
}

func TestSourceFlags_Request(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("Cells make ATP."), 0644))
	attachment := filepath.Join(dir, "chapter1.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF-1.4"), 0644))

	tests := []struct {
		name    string
		flags   sourceFlags
		want    inference.GenerationRequest
		wantErr bool
	}{
		{
			name:  "inline text",
			flags: sourceFlags{text: "Photosynthesis"},
			want:  inference.GenerationRequest{SourceText: "Photosynthesis"},
		},
		{
			name:  "text file replaces inline text",
			flags: sourceFlags{text: "ignored", textFile: textFile},
			want:  inference.GenerationRequest{SourceText: "Cells make ATP."},
		},
		{
			name:  "attachment",
			flags: sourceFlags{attachmentPath: attachment},
			want: inference.GenerationRequest{Attachment: &inference.Attachment{
				Name:     "chapter1.pdf",
				Data:     []byte("%PDF-1.4"),
				MIMEType: "application/pdf",
			}},
		},
		{
			name:    "missing text file",
			flags:   sourceFlags{textFile: filepath.Join(dir, "missing.txt")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.request()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultTitleAndFileName(t *testing.T) {
	assert.Equal(t, "chapter1", defaultTitle(inference.GenerationRequest{Attachment: &inference.Attachment{Name: "chapter1.pdf"}}))
	assert.Equal(t, "one two three four five six", defaultTitle(inference.GenerationRequest{SourceText: "one two three four five six seven"}))
	assert.Equal(t, "Study set", defaultTitle(inference.GenerationRequest{}))

	assert.Equal(t, "cell-biology-101", fileName("Cell Biology 101!"))
	assert.Equal(t, "study-set", fileName("???"))
}
