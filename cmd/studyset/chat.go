package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studyset/internal/cli"
	"github.com/at-ishikawa/studyset/internal/inference"
)

func newChatCommand() *cobra.Command {
	var contextFile string
	command := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the study tutor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			var studyContext string
			if contextFile != "" {
				contents, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("os.ReadFile(%s) > %w", contextFile, err)
				}
				studyContext = string(contents)
			}

			service, closeService, err := newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeService()
			}()

			chatCLI := cli.NewTutorChatCLI(service, studyContext, os.Stdin, cmd.OutOrStdout())
			chatCLI.Greet()
			return cli.Run(cmd.Context(), chatCLI)
		},
	}
	command.Flags().StringVar(&contextFile, "context-file", "", "study material the tutor should refer to")
	return command
}

func newExplainCommand() *cobra.Command {
	var request inference.InsightRequest
	command := &cobra.Command{
		Use:   "explain",
		Short: "Explain why an answer is correct",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			service, closeService, err := newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeService()
			}()

			explanation, err := service.Explain(cmd.Context(), request)
			if err != nil {
				return err
			}
			return cli.PrintExplanation(cmd.OutOrStdout(), explanation)
		},
	}
	command.Flags().StringVar(&request.Question, "question", "", "the question")
	command.Flags().StringVar(&request.Answer, "answer", "", "the correct answer")
	_ = command.MarkFlagRequired("question")
	_ = command.MarkFlagRequired("answer")
	return command
}
