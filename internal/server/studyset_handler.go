// Package server serves the study-set operations over Connect.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/resilience"
	"github.com/at-ishikawa/studyset/internal/studycache"
)

const ServiceName = "studyset.v1.StudySetService"

const (
	GenerateStudySetProcedure = "/" + ServiceName + "/GenerateStudySet"
	ChatProcedure             = "/" + ServiceName + "/Chat"
	ExplainAnswerProcedure    = "/" + ServiceName + "/ExplainAnswer"
	SynthesizeSpeechProcedure = "/" + ServiceName + "/SynthesizeSpeech"
)

const (
	// TierHeader is set by the identity gateway in front of the server. A missing header means free.
	TierHeader = "X-Studyset-Tier"
	// GatewaySecretHeader carries the secret shared with the gateway. TierHeader is ignored without it.
	GatewaySecretHeader = "X-Studyset-Gateway-Secret"
)

// StudySetService is implemented by studyset.Service.
type StudySetService interface {
	Generate(ctx context.Context, request inference.GenerationRequest, tier studycache.Tier) (inference.GenerationResult, error)
	Chat(ctx context.Context, request inference.ChatRequest) (inference.ChatReply, error)
	Explain(ctx context.Context, request inference.InsightRequest) (inference.TutorExplanation, error)
	Speak(ctx context.Context, request inference.SpeechRequest) (inference.SpeechAudio, error)
}

// StudySetHandler adapts a StudySetService to Connect unary procedures.
type StudySetHandler struct {
	service       StudySetService
	retryDelay    time.Duration
	gatewaySecret string
	logger        *slog.Logger
}

type HandlerOption func(*StudySetHandler)

// WithRetryDelay sets the delay advertised to clients in rate-limit errors.
func WithRetryDelay(delay time.Duration) HandlerOption {
	return func(h *StudySetHandler) {
		h.retryDelay = delay
	}
}

// WithGatewaySecret trusts TierHeader on requests that present secret in GatewaySecretHeader.
// Without it every caller is served as free tier.
func WithGatewaySecret(secret string) HandlerOption {
	return func(h *StudySetHandler) {
		h.gatewaySecret = secret
	}
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *StudySetHandler) {
		h.logger = logger
	}
}

func NewStudySetHandler(service StudySetService, options ...HandlerOption) *StudySetHandler {
	h := &StudySetHandler{
		service:    service,
		retryDelay: resilience.DefaultConfig().BaseDelay,
		logger:     slog.Default(),
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// NewStudySetServiceHandler returns the path prefix to mount and the handler serving every procedure.
func NewStudySetServiceHandler(h *StudySetHandler, options ...connect.HandlerOption) (string, http.Handler) {
	options = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, options...)

	mux := http.NewServeMux()
	mux.Handle(GenerateStudySetProcedure, connect.NewUnaryHandler(GenerateStudySetProcedure, h.GenerateStudySet, options...))
	mux.Handle(ChatProcedure, connect.NewUnaryHandler(ChatProcedure, h.Chat, options...))
	mux.Handle(ExplainAnswerProcedure, connect.NewUnaryHandler(ExplainAnswerProcedure, h.ExplainAnswer, options...))
	mux.Handle(SynthesizeSpeechProcedure, connect.NewUnaryHandler(SynthesizeSpeechProcedure, h.SynthesizeSpeech, options...))
	return "/" + ServiceName + "/", mux
}

func (h *StudySetHandler) GenerateStudySet(
	ctx context.Context,
	req *connect.Request[inference.GenerationRequest],
) (*connect.Response[inference.GenerationResult], error) {
	tier, err := h.tier(req.Header())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := h.service.Generate(ctx, *req.Msg, tier)
	if err != nil {
		return nil, h.toConnectError(GenerateStudySetProcedure, err)
	}
	return connect.NewResponse(&result), nil
}

func (h *StudySetHandler) tier(header http.Header) (studycache.Tier, error) {
	value := header.Get(TierHeader)
	if value == "" {
		return studycache.TierFree, nil
	}
	secret := header.Get(GatewaySecretHeader)
	if h.gatewaySecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.gatewaySecret)) != 1 {
		h.logger.Warn("ignoring tier header from an untrusted caller", "tier", value)
		return studycache.TierFree, nil
	}
	return studycache.ParseTier(value)
}

func (h *StudySetHandler) Chat(
	ctx context.Context,
	req *connect.Request[inference.ChatRequest],
) (*connect.Response[inference.ChatReply], error) {
	reply, err := h.service.Chat(ctx, *req.Msg)
	if err != nil {
		return nil, h.toConnectError(ChatProcedure, err)
	}
	return connect.NewResponse(&reply), nil
}

func (h *StudySetHandler) ExplainAnswer(
	ctx context.Context,
	req *connect.Request[inference.InsightRequest],
) (*connect.Response[inference.TutorExplanation], error) {
	explanation, err := h.service.Explain(ctx, *req.Msg)
	if err != nil {
		return nil, h.toConnectError(ExplainAnswerProcedure, err)
	}
	return connect.NewResponse(&explanation), nil
}

func (h *StudySetHandler) SynthesizeSpeech(
	ctx context.Context,
	req *connect.Request[inference.SpeechRequest],
) (*connect.Response[inference.SpeechAudio], error) {
	audio, err := h.service.Speak(ctx, *req.Msg)
	if err != nil {
		return nil, h.toConnectError(SynthesizeSpeechProcedure, err)
	}
	return connect.NewResponse(&audio), nil
}

func (h *StudySetHandler) toConnectError(procedure string, err error) *connect.Error {
	switch {
	case errors.Is(err, inference.ErrInvalidRequest):
		return invalidArgumentError(err)
	case errors.Is(err, studycache.ErrVariantRequiresPro):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, resilience.ErrRateLimited):
		h.logger.Warn("backend rate limited", "procedure", procedure, "error", err)
		connectErr := connect.NewError(connect.CodeResourceExhausted, errors.New(resilience.UserMessage(err)))
		if detail, detailErr := connect.NewErrorDetail(&errdetails.RetryInfo{
			RetryDelay: durationpb.New(h.retryDelay),
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	case errors.Is(err, resilience.ErrRequestFailed):
		h.logger.Error("backend request failed", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeUnavailable, errors.New(resilience.UserMessage(err)))
	default:
		h.logger.Error("unexpected error", "procedure", procedure, "error", err)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", procedure, err))
	}
}

func invalidArgumentError(err error) *connect.Error {
	connectErr := connect.NewError(connect.CodeInvalidArgument, err)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return connectErr
	}

	fieldViolations := make([]*errdetails.BadRequest_FieldViolation, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       fieldErr.Namespace(),
			Description: fieldErr.Error(),
		})
	}
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: fieldViolations,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}
