package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "api error 429",
			err:  &inference.APIError{StatusCode: 429, Message: "slow down"},
			want: KindRateLimited,
		},
		{
			name: "api error with RESOURCE_EXHAUSTED status",
			err:  fmt.Errorf("gemini.GenerateContent > %w", &inference.APIError{StatusCode: 400, Status: "RESOURCE_EXHAUSTED"}),
			want: KindRateLimited,
		},
		{
			name: "api error 503",
			err:  &inference.APIError{StatusCode: 503, Message: "try later"},
			want: KindOverloaded,
		},
		{
			name: "api error with UNAVAILABLE status",
			err:  &inference.APIError{StatusCode: 500, Status: "UNAVAILABLE"},
			want: KindOverloaded,
		},
		{
			name: "quota in message",
			err:  errors.New("You exceeded your current Quota"),
			want: KindRateLimited,
		},
		{
			name: "429 in message",
			err:  errors.New("response error 429: too many requests"),
			want: KindRateLimited,
		},
		{
			name: "model overloaded",
			err:  errors.New("The model is overloaded. Please try again later."),
			want: KindOverloaded,
		},
		{
			name: "deadline exceeded",
			err:  errors.New("rpc error: Deadline Exceeded"),
			want: KindOverloaded,
		},
		{
			name: "api error 400",
			err:  &inference.APIError{StatusCode: 400, Status: "INVALID_ARGUMENT", Message: "bad schema"},
			want: KindFatal,
		},
		{
			name: "malformed response",
			err:  fmt.Errorf("json.Unmarshal > %w", inference.ErrInvalidResponse),
			want: KindFatal,
		},
		{
			name: "invalid response mentioning quota",
			err:  fmt.Errorf("%w: json.Unmarshal(quota notes) > unexpected end of JSON input", inference.ErrInvalidResponse),
			want: KindFatal,
		},
		{
			name: "cancelled",
			err:  fmt.Errorf("request aborted: %w", context.Canceled),
			want: KindFatal,
		},
		{
			name: "nil",
			err:  nil,
			want: KindFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("cause")
	rateLimited := &Error{Operation: "generate", Kind: KindRateLimited, Attempts: 5, Err: cause}
	overloaded := &Error{Operation: "generate", Kind: KindOverloaded, Attempts: 5, Err: cause}
	fatal := &Error{Operation: "generate", Kind: KindFatal, Attempts: 1, Err: inference.ErrInvalidResponse}

	assert.ErrorIs(t, rateLimited, ErrRateLimited)
	assert.NotErrorIs(t, rateLimited, ErrRequestFailed)
	assert.ErrorIs(t, rateLimited, cause)

	assert.ErrorIs(t, overloaded, ErrRequestFailed)
	assert.NotErrorIs(t, overloaded, ErrRateLimited)

	assert.ErrorIs(t, fatal, ErrRequestFailed)
	assert.ErrorIs(t, fatal, inference.ErrInvalidResponse)

	assert.Equal(t, "generate failed after 5 attempt(s) (rate_limited): cause", rateLimited.Error())
}

func TestUserMessage(t *testing.T) {
	rateLimited := fmt.Errorf("service.Generate > %w", &Error{Kind: KindRateLimited, Err: errors.New("429")})
	overloaded := &Error{Kind: KindOverloaded, Err: errors.New("503")}

	assert.Equal(t, rateLimitedMessage, UserMessage(rateLimited))
	assert.Equal(t, failedMessage, UserMessage(overloaded))
	assert.Equal(t, failedMessage, overloaded.UserMessage())
	assert.NotEqual(t, UserMessage(rateLimited), UserMessage(overloaded))
}
