package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studyset/internal/inference"
)

func newSpeakCommand() *cobra.Command {
	var outputPath string
	command := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize speech as raw PCM16 mono 24kHz audio",
		Args:  cobra.MinimumNArgs(1),
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

			audio, err := service.Speak(cmd.Context(), inference.SpeechRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			n, err := writePCM(outputPath, audio)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes of PCM16 audio (%d Hz, %d channel) to %s\n",
				n, audio.SampleRate, audio.Channels, outputPath)
			return nil
		},
	}
	command.Flags().StringVarP(&outputPath, "output", "o", "speech.pcm", "output file")
	return command
}

func writePCM(path string, audio inference.SpeechAudio) (int, error) {
	pcm, err := base64.StdEncoding.DecodeString(audio.AudioBase64)
	if err != nil {
		return 0, fmt.Errorf("base64.DecodeString() > %w", err)
	}
	if err := os.WriteFile(path, pcm, 0644); err != nil {
		return 0, fmt.Errorf("os.WriteFile(%s) > %w", path, err)
	}
	return len(pcm), nil
}
