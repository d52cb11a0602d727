package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/resilience"
)

type fakeTutor struct {
	requests []inference.ChatRequest
	replies  []string
	errs     []error
}

func (f *fakeTutor) Chat(_ context.Context, request inference.ChatRequest) (inference.ChatReply, error) {
	i := len(f.requests)
	f.requests = append(f.requests, request)
	if i < len(f.errs) && f.errs[i] != nil {
		return inference.ChatReply{}, f.errs[i]
	}
	return inference.ChatReply{Text: f.replies[i]}, nil
}

func TestTutorChatCLI_Run(t *testing.T) {
	rateLimited := &resilience.Error{Operation: "Chat", Kind: resilience.KindRateLimited, Attempts: 5, Err: errors.New("429")}

	tests := []struct {
		name         string
		input        string
		tutor        *fakeTutor
		wantMessages [][]inference.ChatMessage
		wantOutput   []string
		wantHistory  int
	}{
		{
			name:  "conversation keeps history",
			input: "What is ATP?\nWhere is it made?\n/quit\n",
			tutor: &fakeTutor{replies: []string{"Energy currency.", "In mitochondria."}},
			wantMessages: [][]inference.ChatMessage{
				{{Role: inference.RoleUser, Text: "What is ATP?"}},
				{
					{Role: inference.RoleUser, Text: "What is ATP?"},
					{Role: inference.RoleModel, Text: "Energy currency."},
					{Role: inference.RoleUser, Text: "Where is it made?"},
				},
			},
			wantOutput:  []string{"tutor: Energy currency.", "tutor: In mitochondria."},
			wantHistory: 4,
		},
		{
			name:  "reset clears history",
			input: "What is ATP?\n/reset\nWhat is NADPH?\n",
			tutor: &fakeTutor{replies: []string{"Energy currency.", "An electron carrier."}},
			wantMessages: [][]inference.ChatMessage{
				{{Role: inference.RoleUser, Text: "What is ATP?"}},
				{{Role: inference.RoleUser, Text: "What is NADPH?"}},
			},
			wantOutput:  []string{"Conversation cleared."},
			wantHistory: 2,
		},
		{
			name:  "failed turn is reported and dropped",
			input: "What is ATP?\nWhat is ATP?",
			tutor: &fakeTutor{errs: []error{rateLimited}, replies: []string{"", "Energy currency."}},
			wantMessages: [][]inference.ChatMessage{
				{{Role: inference.RoleUser, Text: "What is ATP?"}},
				{{Role: inference.RoleUser, Text: "What is ATP?"}},
			},
			wantOutput:  []string{"The system is busy right now. Please wait a moment and try again.", "tutor: Energy currency."},
			wantHistory: 2,
		},
		{
			name:        "blank lines are ignored",
			input:       "\n   \n",
			tutor:       &fakeTutor{},
			wantHistory: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color.NoColor = true
			defer func() { color.NoColor = false }()

			var stdout bytes.Buffer
			chat := NewTutorChatCLI(tt.tutor, "Photosynthesis notes", strings.NewReader(tt.input), &stdout)

			require.NoError(t, Run(context.Background(), chat))

			require.Len(t, tt.tutor.requests, len(tt.wantMessages))
			for i, want := range tt.wantMessages {
				assert.Equal(t, want, tt.tutor.requests[i].Messages)
				assert.Equal(t, "Photosynthesis notes", tt.tutor.requests[i].StudyContext)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, stdout.String(), want)
			}
			assert.Len(t, chat.History(), tt.wantHistory)
		})
	}
}

type failingSession struct {
	err error
}

func (s failingSession) Session(context.Context) error {
	return s.err
}

func TestRun_SessionError(t *testing.T) {
	want := errors.New("stdin closed")
	err := Run(context.Background(), failingSession{err: want})
	assert.ErrorIs(t, err, want)
}

func TestPrintExplanation(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	err := PrintExplanation(&buf, inference.TutorExplanation{
		SimpleExplanation: "Plants make sugar from light.",
		RealWorldExample:  "A solar panel.",
		KeyTakeaways:      []string{"light", "water", "carbon dioxide"},
		CommonMistakes:    []string{"roots eat soil", "only at night", "animals too"},
		QuickCheck: []inference.QuickCheckItem{
			{Question: "What gas is absorbed?", Answer: "Carbon dioxide"},
		},
	})
	require.NoError(t, err)

	got := buf.String()
	assert.Contains(t, got, "In simple terms\nPlants make sugar from light.")
	assert.Contains(t, got, "- carbon dioxide")
	assert.Contains(t, got, "1. What gas is absorbed?\n   Carbon dioxide")
}
