package inference

import (
	"slices"

	"github.com/google/uuid"
)

var newID = uuid.NewString

// Normalize returns a copy of result where every flashcard, quiz and test item carries a fresh id.
// Ids sent by the backend are discarded since they are not unique across calls.
func Normalize(result GenerationResult) GenerationResult {
	normalized := GenerationResult{
		Flashcards: make([]Flashcard, len(result.Flashcards)),
		Quiz:       normalizeQuestions(result.Quiz),
		Test:       normalizeQuestions(result.Test),
		Mindmap:    cloneMindmap(result.Mindmap),
	}
	for i, card := range result.Flashcards {
		card.ID = newID()
		normalized.Flashcards[i] = card
	}
	return normalized
}

func normalizeQuestions(questions []QuizQuestion) []QuizQuestion {
	if questions == nil {
		return nil
	}
	normalized := make([]QuizQuestion, len(questions))
	for i, question := range questions {
		question.ID = newID()
		question.Options = slices.Clone(question.Options)
		normalized[i] = question
	}
	return normalized
}

func cloneMindmap(node MindmapNode) MindmapNode {
	if node.Children == nil {
		return node
	}
	children := make([]MindmapNode, len(node.Children))
	for i, child := range node.Children {
		children[i] = cloneMindmap(child)
	}
	node.Children = children
	return node
}
