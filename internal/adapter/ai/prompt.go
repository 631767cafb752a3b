package ai

import (
	"fmt"
	"strings"
)

// buildUserPrompt folds retrieved document excerpts into the user message.
// Both providers share this layout so swapping backends does not change
// what the model sees.
func buildUserPrompt(userPrompt string, contextChunks []string) string {
	if len(contextChunks) == 0 {
		return userPrompt
	}

	var sb strings.Builder
	sb.WriteString("Context from medical documents:\n")
	for i, chunk := range contextChunks {
		fmt.Fprintf(&sb, "\n--- Document excerpt %d ---\n%s\n", i+1, chunk)
	}
	fmt.Fprintf(&sb, "\nCurrent question: %s\n", userPrompt)
	sb.WriteString("\nProvide a helpful, accurate response based on the medical context above. " +
		"If the documents do not contain relevant information, state this clearly and " +
		"recommend professional consultation.")
	return sb.String()
}
