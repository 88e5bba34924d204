package chat

import (
	"fmt"
	"strings"
)

// greetingSuffix is appended to greetings so retrieval still returns
// document-grounded context.
const greetingSuffix = " Can you tell me what this document is about?"

const preamble = `You are a friendly and helpful AI assistant that answers questions based on the provided document context.

Guidelines:
- Always be warm, conversational, and helpful in your responses
- If the user asks about something directly related to the document, use the context to provide detailed answers
- If the user asks general questions or greetings, respond naturally and offer to help with document-related questions
- If you cannot find specific information in the context, acknowledge this politely and offer alternative help
- Do not make up facts that are not supported by the context
- Use a conversational tone and feel free to ask follow-up questions
- When referencing the document, be specific about what information you found`

// buildPrompt assembles preamble, context, recent turns and the question.
func buildPrompt(context string, history []Turn, question string) string {
	var sb strings.Builder
	sb.WriteString(preamble)

	sb.WriteString("\n\nDocument Context:\n")
	sb.WriteString(context)

	sb.WriteString("\n\nPrevious Conversation:\n")
	for _, turn := range history {
		sb.WriteString(turn.String())
		sb.WriteByte('\n')
	}

	sb.WriteString("\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nFriendly Response:")
	return sb.String()
}

// hedgePhrases mark a model answer that found nothing in the context.
var hedgePhrases = []string{
	"i don't have enough information",
	"cannot find",
}

const (
	greetingFallbackPrefix = "Hello! 👋 I'm here to help you with questions about your document. "
	greetingFallbackSuffix = " Feel free to ask me anything specific about the content!"
	genericFallback        = "I don't have specific information about that in the document I'm working with. " +
		"However, I can help you with other questions about the content. What else would you like to know?"
)

// soften replaces a hedged answer with a reply that offers a next step.
// It reports whether a replacement happened.
func soften(answer string, greeting bool) (string, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(answer, "’", "'"))

	hedged := false
	for _, phrase := range hedgePhrases {
		if strings.Contains(normalized, phrase) {
			hedged = true
			break
		}
	}
	if !hedged {
		return answer, false
	}

	if greeting {
		return greetingFallbackPrefix + answer + greetingFallbackSuffix, true
	}
	return genericFallback, true
}

// FormatSources renders numbered source previews, cutting each to maxLen characters.
func FormatSources(sources []string, maxLen int) []string {
	return FormatSectionedSources(sources, nil, maxLen)
}

// FormatSectionedSources is FormatSources with each preview labelled by its
// section heading. sections[i] belongs to sources[i]; missing or empty
// entries leave the preview unlabelled.
func FormatSectionedSources(sources, sections []string, maxLen int) []string {
	out := make([]string, len(sources))
	for i, source := range sources {
		preview := source
		if runes := []rune(source); maxLen > 0 && len(runes) > maxLen {
			preview = string(runes[:maxLen]) + "..."
		}
		if i < len(sections) && sections[i] != "" {
			out[i] = fmt.Sprintf("Source %d [%s]: %s", i+1, sections[i], preview)
			continue
		}
		out[i] = fmt.Sprintf("Source %d: %s", i+1, preview)
	}
	return out
}
