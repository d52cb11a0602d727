package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/studyset/internal/inference"
	"resty.dev/v3"
)

// Client talks to a study-set generation service over HTTP/JSON.
// It makes exactly one request per call; retries belong to the caller.
type Client struct {
	httpClient *resty.Client
}

var _ inference.Client = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient: client,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// errorEnvelope is the Google-style error body: {"error": {"code": 429, "message": "...", "status": "RESOURCE_EXHAUSTED"}}.
type errorEnvelope struct {
	Error inference.APIError `json:"error"`
}

func (client *Client) post(ctx context.Context, path string, body, result any) error {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("httpClient.Post(%s) > %w", path, err)
	}
	if response.IsError() {
		return parseError(response.StatusCode(), response.String())
	}

	slog.Default().Debug("generation backend response",
		"path", path,
		"status", response.StatusCode())

	content := response.String()
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return nil
}

func parseError(statusCode int, body string) error {
	var envelope errorEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil || envelope.Error.Message == "" {
		return &inference.APIError{StatusCode: statusCode, Message: body}
	}
	apiErr := envelope.Error
	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = statusCode
	}
	return &apiErr
}

// GenerateStudySet implements the inference.Client interface
func (client *Client) GenerateStudySet(ctx context.Context, request inference.GenerationRequest) (inference.GenerationResult, error) {
	var result inference.GenerationResult
	if err := client.post(ctx, "/v1/study-sets", request, &result); err != nil {
		return inference.GenerationResult{}, err
	}
	return result, nil
}

// Chat implements the inference.Client interface
func (client *Client) Chat(ctx context.Context, request inference.ChatRequest) (inference.ChatReply, error) {
	var reply inference.ChatReply
	if err := client.post(ctx, "/v1/chat", request, &reply); err != nil {
		return inference.ChatReply{}, err
	}
	if reply.Text == "" {
		return inference.ChatReply{}, fmt.Errorf("%w: empty chat reply", inference.ErrInvalidResponse)
	}
	return reply, nil
}

// ExplainAnswer implements the inference.Client interface
func (client *Client) ExplainAnswer(ctx context.Context, request inference.InsightRequest) (inference.TutorExplanation, error) {
	var explanation inference.TutorExplanation
	if err := client.post(ctx, "/v1/insights", request, &explanation); err != nil {
		return inference.TutorExplanation{}, err
	}
	return explanation, nil
}

// SynthesizeSpeech implements the inference.Client interface
func (client *Client) SynthesizeSpeech(ctx context.Context, request inference.SpeechRequest) (inference.SpeechAudio, error) {
	var audio inference.SpeechAudio
	if err := client.post(ctx, "/v1/speech", request, &audio); err != nil {
		return inference.SpeechAudio{}, err
	}
	if audio.AudioBase64 == "" {
		return inference.SpeechAudio{}, fmt.Errorf("%w: no audio in speech response", inference.ErrInvalidResponse)
	}
	// A body with only audioBase64 is the 24kHz mono contract.
	if audio.SampleRate == 0 {
		audio.SampleRate = inference.SpeechSampleRate
	}
	if audio.Channels == 0 {
		audio.Channels = inference.SpeechChannels
	}
	if audio.SampleRate != inference.SpeechSampleRate || audio.Channels != inference.SpeechChannels {
		return inference.SpeechAudio{}, fmt.Errorf("%w: expected %d Hz mono PCM16, got %d Hz with %d channel(s)",
			inference.ErrInvalidResponse, inference.SpeechSampleRate, audio.SampleRate, audio.Channels)
	}
	return audio, nil
}
