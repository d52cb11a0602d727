// Package studyset runs every study tool call through the resilience executor and the tiered cache.
package studyset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/resilience"
	"github.com/at-ishikawa/studyset/internal/studycache"
)

// Service is the entry point for callers of the generation backend.
type Service struct {
	client   inference.Client
	executor *resilience.Executor
	cache    *studycache.Cache
	logger   *slog.Logger
}

func NewService(client inference.Client, executor *resilience.Executor, cache *studycache.Cache) *Service {
	return &Service{
		client:   client,
		executor: executor,
		cache:    cache,
		logger:   slog.Default(),
	}
}

// Generate returns a study set for request. Free-tier results are served from and stored in the cache.
func (s *Service) Generate(ctx context.Context, request inference.GenerationRequest, tier studycache.Tier) (inference.GenerationResult, error) {
	request = request.WithDefaults()
	if err := request.Validate(); err != nil {
		return inference.GenerationResult{}, err
	}

	result, err := s.cache.GetOrGenerate(ctx, request, tier, func(ctx context.Context) (inference.GenerationResult, error) {
		return resilience.Execute(ctx, s.executor, "GenerateStudySet", func(ctx context.Context) (inference.GenerationResult, error) {
			result, err := s.client.GenerateStudySet(ctx, request)
			if err != nil {
				return inference.GenerationResult{}, err
			}
			if err := inference.ValidateResult(result); err != nil {
				return inference.GenerationResult{}, err
			}
			return inference.Normalize(result), nil
		})
	})
	if err != nil {
		return inference.GenerationResult{}, fmt.Errorf("studyset.Generate > %w", err)
	}

	s.logger.Debug("study set ready",
		"tier", tier,
		"flashcards", len(result.Flashcards),
		"quiz", len(result.Quiz),
		"test", len(result.Test),
		"mindmap_depth", result.Mindmap.Depth())
	return result, nil
}

// Chat sends one tutor turn.
func (s *Service) Chat(ctx context.Context, request inference.ChatRequest) (inference.ChatReply, error) {
	if err := request.Validate(); err != nil {
		return inference.ChatReply{}, err
	}
	reply, err := resilience.Execute(ctx, s.executor, "Chat", func(ctx context.Context) (inference.ChatReply, error) {
		return s.client.Chat(ctx, request)
	})
	if err != nil {
		return inference.ChatReply{}, fmt.Errorf("studyset.Chat > %w", err)
	}
	return reply, nil
}

// Explain asks the tutor why answer is the correct answer to question.
func (s *Service) Explain(ctx context.Context, request inference.InsightRequest) (inference.TutorExplanation, error) {
	if err := request.Validate(); err != nil {
		return inference.TutorExplanation{}, err
	}
	explanation, err := resilience.Execute(ctx, s.executor, "ExplainAnswer", func(ctx context.Context) (inference.TutorExplanation, error) {
		explanation, err := s.client.ExplainAnswer(ctx, request)
		if err != nil {
			return inference.TutorExplanation{}, err
		}
		if err := inference.ValidateExplanation(explanation); err != nil {
			return inference.TutorExplanation{}, err
		}
		return explanation, nil
	})
	if err != nil {
		return inference.TutorExplanation{}, fmt.Errorf("studyset.Explain > %w", err)
	}
	return explanation, nil
}

// Speak synthesizes text as base64 PCM16 mono 24kHz audio.
func (s *Service) Speak(ctx context.Context, request inference.SpeechRequest) (inference.SpeechAudio, error) {
	if err := request.Validate(); err != nil {
		return inference.SpeechAudio{}, err
	}
	audio, err := resilience.Execute(ctx, s.executor, "SynthesizeSpeech", func(ctx context.Context) (inference.SpeechAudio, error) {
		return s.client.SynthesizeSpeech(ctx, request)
	})
	if err != nil {
		return inference.SpeechAudio{}, fmt.Errorf("studyset.Speak > %w", err)
	}
	return audio, nil
}
