package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/at-ishikawa/studyset/internal/inference"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Kore"

	temperature        = 0.4
	variantTemperature = 1.0
)

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements inference.Client on the Gemini API.
// It makes exactly one API call per method; retries belong to the caller.
type Client struct {
	models      contentGenerator
	model       string
	speechModel string
	voice       string
}

var _ inference.Client = (*Client)(nil)

type Config struct {
	APIKey      string
	Model       string
	SpeechModel string
	Voice       string
	Timeout     time.Duration
}

func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient > %w", err)
	}
	return newClient(client.Models, config), nil
}

func newClient(models contentGenerator, config Config) *Client {
	client := &Client{
		models:      models,
		model:       config.Model,
		speechModel: config.SpeechModel,
		voice:       config.Voice,
	}
	if client.model == "" {
		client.model = DefaultModel
	}
	if client.speechModel == "" {
		client.speechModel = DefaultSpeechModel
	}
	if client.voice == "" {
		client.voice = DefaultVoice
	}
	return client
}

// GetModel returns the text model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

func (client *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) ([]*genai.Part, error) {
	response, err := client.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("models.GenerateContent > %w", translateError(err))
	}
	if response == nil || len(response.Candidates) == 0 {
		if response != nil && response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: prompt blocked: %s", inference.ErrInvalidResponse, response.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%w: no candidates", inference.ErrInvalidResponse)
	}

	candidate := response.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", inference.ErrInvalidResponse)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content", inference.ErrInvalidResponse)
	}
	return candidate.Content.Parts, nil
}

func (client *Client) generateJSON(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, result any) error {
	parts, err := client.generate(ctx, client.model, contents, config)
	if err != nil {
		return err
	}

	var text strings.Builder
	for _, part := range parts {
		text.WriteString(part.Text)
	}
	content := text.String()
	slog.Default().Debug("gemini response content", "model", client.model, "length", len(content))

	if err := json.Unmarshal([]byte(content), result); err != nil {
		return fmt.Errorf("%w: json.Unmarshal(%s) > %v", inference.ErrInvalidResponse, content, err)
	}
	return nil
}

// GenerateStudySet implements the inference.Client interface
func (client *Client) GenerateStudySet(ctx context.Context, request inference.GenerationRequest) (inference.GenerationResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(studySetPrompt(request)),
	}
	if request.Attachment != nil && len(request.Attachment.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(request.Attachment.Data, request.Attachment.MIMEType))
	}

	t := float32(temperature)
	if request.Variant {
		t = variantTemperature
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(studySetInstruction, genai.RoleUser),
		Temperature:       &t,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    studySetSchema(),
	}

	var result inference.GenerationResult
	if err := client.generateJSON(ctx, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config, &result); err != nil {
		return inference.GenerationResult{}, err
	}
	return result, nil
}

// Chat implements the inference.Client interface
func (client *Client) Chat(ctx context.Context, request inference.ChatRequest) (inference.ChatReply, error) {
	contents := make([]*genai.Content, 0, len(request.Messages))
	for _, message := range request.Messages {
		role := genai.RoleUser
		if message.Role == inference.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(message.Text, genai.Role(role)))
	}

	instruction := tutorInstruction
	if request.StudyContext != "" {
		instruction += "\n\nStudy material:\n" + request.StudyContext
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
	}

	parts, err := client.generate(ctx, client.model, contents, config)
	if err != nil {
		return inference.ChatReply{}, err
	}
	var text strings.Builder
	for _, part := range parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return inference.ChatReply{}, fmt.Errorf("%w: empty chat reply", inference.ErrInvalidResponse)
	}
	return inference.ChatReply{Text: text.String()}, nil
}

// ExplainAnswer implements the inference.Client interface
func (client *Client) ExplainAnswer(ctx context.Context, request inference.InsightRequest) (inference.TutorExplanation, error) {
	t := float32(temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(tutorInstruction, genai.RoleUser),
		Temperature:       &t,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    explanationSchema(),
	}

	prompt := fmt.Sprintf(insightPrompt, request.Question, request.Answer,
		inference.KeyTakeawayCount, inference.CommonMistakeCount, inference.QuickCheckItemCount)
	var explanation inference.TutorExplanation
	if err := client.generateJSON(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, config, &explanation); err != nil {
		return inference.TutorExplanation{}, err
	}
	return explanation, nil
}

// SynthesizeSpeech implements the inference.Client interface
func (client *Client) SynthesizeSpeech(ctx context.Context, request inference.SpeechRequest) (inference.SpeechAudio, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: client.voice},
			},
		},
	}

	parts, err := client.generate(ctx, client.speechModel, []*genai.Content{genai.NewContentFromText(request.Text, genai.RoleUser)}, config)
	if err != nil {
		return inference.SpeechAudio{}, err
	}
	for _, part := range parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return inference.SpeechAudio{
				AudioBase64: base64.StdEncoding.EncodeToString(part.InlineData.Data),
				SampleRate:  inference.SpeechSampleRate,
				Channels:    inference.SpeechChannels,
			}, nil
		}
	}
	return inference.SpeechAudio{}, fmt.Errorf("%w: no audio in speech response", inference.ErrInvalidResponse)
}

// translateError converts a genai API error into *inference.APIError so that it can be classified.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &inference.APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &inference.APIError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}
