package inference

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Attachment is a document submitted alongside (or instead of) source text.
type Attachment struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Data     []byte `json:"data" yaml:"data"`
	MIMEType string `json:"mimeType" yaml:"mime_type"`
}

// GenerationRequest is one study-set synthesis attempt.
type GenerationRequest struct {
	SourceText     string      `json:"sourceText,omitempty"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	FlashcardCount int         `json:"flashcardCount" validate:"gt=0"`
	QuizCount      int         `json:"quizCount" validate:"gt=0"`

	// Variant asks the backend for a different set from the same input.
	Variant bool `json:"variant,omitempty"`
}

// AttachmentName returns the attachment's name or an empty string.
func (r GenerationRequest) AttachmentName() string {
	if r.Attachment == nil {
		return ""
	}
	return r.Attachment.Name
}

func (r GenerationRequest) hasSource() bool {
	if strings.TrimSpace(r.SourceText) != "" {
		return true
	}
	return r.Attachment != nil && len(r.Attachment.Data) > 0
}

// WithDefaults fills unset counts with DefaultItemCount.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	if r.FlashcardCount == 0 {
		r.FlashcardCount = DefaultItemCount
	}
	if r.QuizCount == 0 {
		r.QuizCount = DefaultItemCount
	}
	return r
}

// Validate checks the request after defaults are applied.
func (r GenerationRequest) Validate() error {
	if !r.hasSource() {
		return fmt.Errorf("%w: source text or attachment is required", ErrInvalidRequest)
	}
	if r.Attachment != nil && len(r.Attachment.Data) > 0 && r.Attachment.MIMEType == "" {
		return fmt.Errorf("%w: attachment mime type is required", ErrInvalidRequest)
	}
	if err := validateStruct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Flashcard is a question/answer pair.
type Flashcard struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question" validate:"required"`
	Answer   string `json:"answer" yaml:"answer" validate:"required"`
}

// QuizQuestion is a multiple-choice item used in both quizzes and tests.
type QuizQuestion struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question" yaml:"question" validate:"required"`
	Options       []string `json:"options" yaml:"options" validate:"len=4,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer" validate:"required"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	Category      string   `json:"category" yaml:"category"`
}

// MindmapNode is one node of the study set's mindmap tree.
type MindmapNode struct {
	Label    string        `json:"label" yaml:"label"`
	Content  string        `json:"content,omitempty" yaml:"content,omitempty"`
	Children []MindmapNode `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
}

// Depth returns the number of levels in the tree rooted at n.
func (n MindmapNode) Depth() int {
	depth := 0
	for _, child := range n.Children {
		if d := child.Depth(); d > depth {
			depth = d
		}
	}
	return depth + 1
}

// GenerationResult is the normalized output of a successful generation.
type GenerationResult struct {
	Flashcards []Flashcard    `json:"flashcards" yaml:"flashcards" validate:"required,min=1,dive"`
	Quiz       []QuizQuestion `json:"quiz" yaml:"quiz" validate:"dive"`
	Test       []QuizQuestion `json:"test,omitempty" yaml:"test,omitempty" validate:"omitempty,dive"`
	Mindmap    MindmapNode    `json:"mindmap" yaml:"mindmap"`
}

// ValidateResult checks that a backend response has the shape the study tools need.
func ValidateResult(result GenerationResult) error {
	if err := validateStruct(result); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validateStruct(s any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(s)
}
