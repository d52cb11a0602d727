package inference

import (
	"fmt"
	"strings"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is a single turn of a tutor conversation.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ChatRequest holds the conversation so far. The last message must come from the user.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`

	// StudyContext is optional study material the tutor should ground its answers on.
	StudyContext string `json:"studyContext,omitempty"`
}

func (r ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: at least one message is required", ErrInvalidRequest)
	}
	for i, message := range r.Messages {
		if message.Role != RoleUser && message.Role != RoleModel {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, message.Role)
		}
	}
	if last := r.Messages[len(r.Messages)-1]; last.Role != RoleUser || strings.TrimSpace(last.Text) == "" {
		return fmt.Errorf("%w: the last message must be a non-empty user message", ErrInvalidRequest)
	}
	return nil
}

type ChatReply struct {
	Text string `json:"text"`
}

// InsightRequest asks the tutor to explain why an answer is correct.
type InsightRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (r InsightRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" || strings.TrimSpace(r.Answer) == "" {
		return fmt.Errorf("%w: question and answer are required", ErrInvalidRequest)
	}
	return nil
}

type QuickCheckItem struct {
	Question string `json:"question" yaml:"question" validate:"required"`
	Answer   string `json:"answer" yaml:"answer" validate:"required"`
}

// TutorExplanation is the tutor-insight record for one question.
type TutorExplanation struct {
	SimpleExplanation string           `json:"simpleExplanation" yaml:"simple_explanation" validate:"required"`
	RealWorldExample  string           `json:"realWorldExample" yaml:"real_world_example" validate:"required"`
	KeyTakeaways      []string         `json:"keyTakeaways" yaml:"key_takeaways" validate:"len=3,dive,required"`
	CommonMistakes    []string         `json:"commonMistakes" yaml:"common_mistakes" validate:"len=3,dive,required"`
	QuickCheck        []QuickCheckItem `json:"quickCheck" yaml:"quick_check" validate:"len=5,dive"`
}

func ValidateExplanation(explanation TutorExplanation) error {
	if err := validateStruct(explanation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

type SpeechRequest struct {
	Text string `json:"text"`
}

func (r SpeechRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	return nil
}

// SpeechAudio carries base64-encoded raw PCM16 audio.
type SpeechAudio struct {
	AudioBase64 string `json:"audioBase64"`
	SampleRate  int    `json:"sampleRate"`
	Channels    int    `json:"channels"`
}
