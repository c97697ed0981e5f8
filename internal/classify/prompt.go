package classify

import (
	"fmt"
	"strings"
)

const (
	// maxExcerptLen caps the body excerpt embedded in the prompt.
	maxExcerptLen = 500

	// excerptMarker is appended when the body was truncated. Purely for
	// prompt readability; it carries no meaning for the backend.
	excerptMarker = "..."
)

// excerpt returns at most maxExcerptLen characters of body. When withMarker is
// set and the body was truncated, an ellipsis marker is appended.
func excerpt(body string, withMarker bool) string {
	runes := []rune(body)
	if len(runes) <= maxExcerptLen {
		return body
	}
	if withMarker {
		return string(runes[:maxExcerptLen]) + excerptMarker
	}
	return string(runes[:maxExcerptLen])
}

// buildPrompt assembles the classification instruction: the full category set
// with a short rationale per category, followed by the message fields, asking
// for a single category name back.
func buildPrompt(subject, sender, bodyExcerpt string) string {
	var b strings.Builder

	b.WriteString("You are an email classifier. Assign exactly one category to the email below.\n")
	b.WriteString("Valid categories:\n")
	for _, c := range Categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, categoryHints[c])
	}
	b.WriteString("\nEmail:\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "From: %s\n", sender)
	fmt.Fprintf(&b, "Body: %s\n", bodyExcerpt)
	b.WriteString("\nReply with only the category name, exactly as written above, and nothing else.")

	return b.String()
}
