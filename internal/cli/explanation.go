package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/at-ishikawa/studyset/internal/inference"
)

// PrintExplanation writes a tutor insight in reading order.
func PrintExplanation(w io.Writer, explanation inference.TutorExplanation) error {
	bold := color.New(color.Bold)
	section := func(title string) error {
		_, err := bold.Fprintf(w, "\n%s\n", title)
		return err
	}

	if err := section("In simple terms"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, explanation.SimpleExplanation); err != nil {
		return err
	}
	if err := section("Real-world example"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, explanation.RealWorldExample); err != nil {
		return err
	}

	if err := section("Key takeaways"); err != nil {
		return err
	}
	for _, takeaway := range explanation.KeyTakeaways {
		if _, err := fmt.Fprintf(w, "- %s\n", takeaway); err != nil {
			return err
		}
	}
	if err := section("Common mistakes"); err != nil {
		return err
	}
	for _, mistake := range explanation.CommonMistakes {
		if _, err := fmt.Fprintf(w, "- %s\n", mistake); err != nil {
			return err
		}
	}

	if err := section("Quick check"); err != nil {
		return err
	}
	for i, item := range explanation.QuickCheck {
		if _, err := fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, item.Question, item.Answer); err != nil {
			return err
		}
	}
	return nil
}
