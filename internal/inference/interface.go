package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the operations the generation backend serves.
// Implementations perform exactly one backend call per method and do not retry;
// retries are the job of the resilience layer wrapping them.
type Client interface {
	GenerateStudySet(ctx context.Context, request GenerationRequest) (GenerationResult, error)
	Chat(ctx context.Context, request ChatRequest) (ChatReply, error)
	ExplainAnswer(ctx context.Context, request InsightRequest) (TutorExplanation, error)
	SynthesizeSpeech(ctx context.Context, request SpeechRequest) (SpeechAudio, error)
}

const (
	// DefaultItemCount is used when a request leaves a flashcard or quiz count unset.
	DefaultItemCount = 10

	QuizOptionCount     = 4
	KeyTakeawayCount    = 3
	CommonMistakeCount  = 3
	QuickCheckItemCount = 5

	// Speech is raw little-endian PCM16, mono, 24kHz.
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)
