package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studyset/internal/export"
	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/studycache"
)

type sourceFlags struct {
	text           string
	textFile       string
	attachmentPath string
}

func (flags *sourceFlags) register(command *cobra.Command) {
	command.Flags().StringVar(&flags.text, "text", "", "study material as text")
	command.Flags().StringVar(&flags.textFile, "text-file", "", "read study material from a text file")
	command.Flags().StringVar(&flags.attachmentPath, "attachment", "", "document to study (PDF, image, ...)")
}

// request builds a generation request. Counts and variant are set by the caller.
func (flags *sourceFlags) request() (inference.GenerationRequest, error) {
	var request inference.GenerationRequest
	request.SourceText = flags.text
	if flags.textFile != "" {
		contents, err := os.ReadFile(flags.textFile)
		if err != nil {
			return request, fmt.Errorf("os.ReadFile(%s) > %w", flags.textFile, err)
		}
		request.SourceText = string(contents)
	}

	if flags.attachmentPath != "" {
		data, err := os.ReadFile(flags.attachmentPath)
		if err != nil {
			return request, fmt.Errorf("os.ReadFile(%s) > %w", flags.attachmentPath, err)
		}
		request.Attachment = &inference.Attachment{
			Name:     filepath.Base(flags.attachmentPath),
			Data:     data,
			MIMEType: detectMIMEType(data),
		}
	}
	return request, nil
}

// detectMIMEType sniffs the content, so office documents are not reported as plain zip archives.
func detectMIMEType(data []byte) string {
	return strings.SplitN(mimetype.Detect(data).String(), ";", 2)[0]
}

func newGenerateCommand() *cobra.Command {
	var (
		source         sourceFlags
		flashcardCount int
		quizCount      int
		variant        bool
		outputDir      string
		title          string
		toStdout       bool
	)
	tier := studycache.TierFree
	format := export.FormatMarkdown

	command := &cobra.Command{
		Use:   "generate",
		Short: "Generate a study set from text or a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			request, err := source.request()
			if err != nil {
				return err
			}
			request.FlashcardCount = flashcardCount
			request.QuizCount = quizCount
			request.Variant = variant

			exporter, err := export.NewExporter(cfg.Export.MarkdownTemplate)
			if err != nil {
				return fmt.Errorf("export.NewExporter() > %w", err)
			}

			service, closeService, err := newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeService()
			}()

			result, err := service.Generate(cmd.Context(), request, tier)
			if err != nil {
				return err
			}

			if title == "" {
				title = defaultTitle(request)
			}
			document := export.Document{Title: title, GenerationResult: result}
			if toStdout {
				return exporter.Write(cmd.OutOrStdout(), format, document)
			}

			if outputDir == "" {
				outputDir = cfg.Export.Directory
			}
			path, err := exporter.WriteFile(outputDir, fileName(title), format, document)
			if err != nil {
				return fmt.Errorf("exporter.WriteFile() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Study set with %d flashcards written to %s\n", len(result.Flashcards), path)
			return nil
		},
	}
	source.register(command)
	command.Flags().IntVar(&flashcardCount, "flashcards", 0, "number of flashcards (default 10)")
	command.Flags().IntVar(&quizCount, "quiz", 0, "number of quiz questions (default 10)")
	command.Flags().BoolVar(&variant, "variant", false, "generate a different set from the same material (pro tier)")
	command.Flags().Var(&tier, "tier", "caller tier: free or pro")
	command.Flags().Var(&format, "format", "output format: json, yaml, markdown or pdf")
	command.Flags().StringVar(&outputDir, "output", "", "output directory (default export.directory)")
	command.Flags().StringVar(&title, "title", "", "study set title")
	command.Flags().BoolVar(&toStdout, "stdout", false, "write to standard output instead of a file")
	return command
}

func defaultTitle(request inference.GenerationRequest) string {
	if name := request.AttachmentName(); name != "" {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	words := strings.Fields(request.SourceText)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "Study set"
	}
	return strings.Join(words, " ")
}

func fileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	if name == "" {
		return "study-set"
	}
	return name
}
