package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studyset/internal/resilience"
)

var (
	configFile string
)

func main() {
	rootCommand := newRootCommand()
	if err := rootCommand.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "studyset",
		Short:         "Generate flashcards, quizzes and mindmaps from study material",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	rootCommand.AddCommand(
		newGenerateCommand(),
		newChatCommand(),
		newExplainCommand(),
		newSpeakCommand(),
		newCacheCommand(),
		newMigrateCommand(),
	)
	return rootCommand
}

// printError shows request failures the way end users should see them and everything else verbatim.
func printError(w io.Writer, err error) {
	if errors.Is(err, resilience.ErrRateLimited) || errors.Is(err, resilience.ErrRequestFailed) {
		_, _ = color.New(color.FgRed).Fprintln(w, resilience.UserMessage(err))
		slog.Debug("request failed", "error", err)
		return
	}
	if _, fprintfErr := fmt.Fprintf(w, "failed to execute a command: %+v\n", err); fprintfErr != nil {
		panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
	}
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}
