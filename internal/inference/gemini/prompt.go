package gemini

import (
	"fmt"
	"strings"

	"github.com/at-ishikawa/studyset/internal/inference"
	"google.golang.org/genai"
)

const studySetInstruction = `You turn study material into a study set.
Answer only with JSON matching the response schema.
Every quiz and test question has exactly 4 options and the correct answer is one of them.
The mindmap has one root node and at most three levels.`

const tutorInstruction = `You are a patient tutor. Explain concepts simply, check understanding and stay on the topic of the study material.`

const insightPrompt = `Question: %s
Correct answer: %s

Explain why this answer is correct. Give a simple explanation, a real world example,
exactly %d key takeaways, exactly %d common mistakes and exactly %d quick check questions with answers.`

// mindmapDepth bounds the mindmap schema, which cannot be recursive.
const mindmapDepth = 3

func studySetPrompt(request inference.GenerationRequest) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Create %d flashcards, a quiz of %d questions, a test of %d questions and a mindmap.\n",
		request.FlashcardCount, request.QuizCount, request.QuizCount)
	if request.Attachment != nil && request.Attachment.Name != "" {
		fmt.Fprintf(&prompt, "The attached document is %q.\n", request.Attachment.Name)
	}
	if request.SourceText != "" {
		prompt.WriteString("\nStudy material:\n")
		prompt.WriteString(request.SourceText)
	}
	return prompt.String()
}

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

func objectOf(properties map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: properties, Required: required}
}

func questionSchema() *genai.Schema {
	options := arrayOf(stringSchema())
	options.MinItems = genai.Ptr[int64](inference.QuizOptionCount)
	options.MaxItems = genai.Ptr[int64](inference.QuizOptionCount)
	return objectOf(map[string]*genai.Schema{
		"question":      stringSchema(),
		"options":       options,
		"correctAnswer": stringSchema(),
		"explanation":   stringSchema(),
		"category":      stringSchema(),
	}, "question", "options", "correctAnswer", "explanation")
}

func mindmapSchema(depth int) *genai.Schema {
	properties := map[string]*genai.Schema{
		"label":   stringSchema(),
		"content": stringSchema(),
	}
	if depth > 1 {
		properties["children"] = arrayOf(mindmapSchema(depth - 1))
	}
	return objectOf(properties, "label")
}

func studySetSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"flashcards": arrayOf(objectOf(map[string]*genai.Schema{
			"question": stringSchema(),
			"answer":   stringSchema(),
		}, "question", "answer")),
		"quiz":    arrayOf(questionSchema()),
		"test":    arrayOf(questionSchema()),
		"mindmap": mindmapSchema(mindmapDepth),
	}, "flashcards", "quiz", "test", "mindmap")
}

func explanationSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"simpleExplanation": stringSchema(),
		"realWorldExample":  stringSchema(),
		"keyTakeaways":      arrayOf(stringSchema()),
		"commonMistakes":    arrayOf(stringSchema()),
		"quickCheck": arrayOf(objectOf(map[string]*genai.Schema{
			"question": stringSchema(),
			"answer":   stringSchema(),
		}, "question", "answer")),
	}, "simpleExplanation", "realWorldExample", "keyTakeaways", "commonMistakes", "quickCheck")
}
