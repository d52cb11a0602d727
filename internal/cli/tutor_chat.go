package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/resilience"
)

var errEnd = errors.New("end of session")

// Tutor answers chat turns. studyset.Service implements it.
type Tutor interface {
	Chat(ctx context.Context, request inference.ChatRequest) (inference.ChatReply, error)
}

// TutorChatCLI is an interactive conversation with the study tutor.
type TutorChatCLI struct {
	tutor        Tutor
	studyContext string
	history      []inference.ChatMessage

	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	bold         *color.Color
	italic       *color.Color
	warning      *color.Color
}

func NewTutorChatCLI(tutor Tutor, studyContext string, stdin io.Reader, stdout io.Writer) *TutorChatCLI {
	return &TutorChatCLI{
		tutor:        tutor,
		studyContext: studyContext,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		warning:      color.New(color.FgRed),
	}
}

// History returns the turns the tutor has answered so far.
func (cli *TutorChatCLI) History() []inference.ChatMessage {
	return append([]inference.ChatMessage(nil), cli.history...)
}

func (cli *TutorChatCLI) Greet() {
	_, _ = cli.bold.Fprintln(cli.stdoutWriter, "Ask the tutor anything about your study set.")
	_, _ = cli.italic.Fprintln(cli.stdoutWriter, "Type /reset to start over or /quit to leave.")
}

// Session reads one line and answers it. A failed turn is reported and dropped from the history.
func (cli *TutorChatCLI) Session(ctx context.Context) error {
	_, _ = fmt.Fprint(cli.stdoutWriter, "> ")
	line, err := cli.stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdinReader.ReadString() > %w", err)
	}
	eof := errors.Is(err, io.EOF)

	text := strings.TrimSpace(line)
	switch text {
	case "":
		if eof {
			return errEnd
		}
		return nil
	case "/quit", "/exit":
		return errEnd
	case "/reset":
		cli.history = nil
		_, _ = cli.italic.Fprintln(cli.stdoutWriter, "Conversation cleared.")
		return nil
	}

	messages := append(cli.History(), inference.ChatMessage{Role: inference.RoleUser, Text: text})
	reply, err := cli.tutor.Chat(ctx, inference.ChatRequest{
		Messages:     messages,
		StudyContext: cli.studyContext,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		_, _ = cli.warning.Fprintln(cli.stdoutWriter, resilience.UserMessage(err))
		if eof {
			return errEnd
		}
		return nil
	}

	cli.history = append(messages, inference.ChatMessage{Role: inference.RoleModel, Text: reply.Text})
	_, _ = cli.bold.Fprint(cli.stdoutWriter, "tutor: ")
	_, _ = fmt.Fprintln(cli.stdoutWriter, reply.Text)
	if eof {
		return errEnd
	}
	return nil
}

type Session interface {
	Session(ctx context.Context) error
}

// Run repeats session until it ends, fails, or the process is interrupted.
func Run(ctx context.Context, session Session) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for ctx.Err() == nil {
			if err := session.Session(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Received interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("session.Session() > %w", err)
		}
	}
	return nil
}
