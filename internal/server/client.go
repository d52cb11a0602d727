package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// StudySetServiceClient calls a study-set server.
type StudySetServiceClient struct {
	generateStudySet *connect.Client[inference.GenerationRequest, inference.GenerationResult]
	chat             *connect.Client[inference.ChatRequest, inference.ChatReply]
	explainAnswer    *connect.Client[inference.InsightRequest, inference.TutorExplanation]
	synthesizeSpeech *connect.Client[inference.SpeechRequest, inference.SpeechAudio]
}

func NewStudySetServiceClient(httpClient connect.HTTPClient, baseURL string, options ...connect.ClientOption) *StudySetServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	options = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, options...)
	return &StudySetServiceClient{
		generateStudySet: connect.NewClient[inference.GenerationRequest, inference.GenerationResult](
			httpClient, baseURL+GenerateStudySetProcedure, options...),
		chat: connect.NewClient[inference.ChatRequest, inference.ChatReply](
			httpClient, baseURL+ChatProcedure, options...),
		explainAnswer: connect.NewClient[inference.InsightRequest, inference.TutorExplanation](
			httpClient, baseURL+ExplainAnswerProcedure, options...),
		synthesizeSpeech: connect.NewClient[inference.SpeechRequest, inference.SpeechAudio](
			httpClient, baseURL+SynthesizeSpeechProcedure, options...),
	}
}

func (c *StudySetServiceClient) GenerateStudySet(
	ctx context.Context,
	req *connect.Request[inference.GenerationRequest],
) (*connect.Response[inference.GenerationResult], error) {
	return c.generateStudySet.CallUnary(ctx, req)
}

func (c *StudySetServiceClient) Chat(
	ctx context.Context,
	req *connect.Request[inference.ChatRequest],
) (*connect.Response[inference.ChatReply], error) {
	return c.chat.CallUnary(ctx, req)
}

func (c *StudySetServiceClient) ExplainAnswer(
	ctx context.Context,
	req *connect.Request[inference.InsightRequest],
) (*connect.Response[inference.TutorExplanation], error) {
	return c.explainAnswer.CallUnary(ctx, req)
}

func (c *StudySetServiceClient) SynthesizeSpeech(
	ctx context.Context,
	req *connect.Request[inference.SpeechRequest],
) (*connect.Response[inference.SpeechAudio], error) {
	return c.synthesizeSpeech.CallUnary(ctx, req)
}
