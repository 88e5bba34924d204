package chat

import (
	"strings"
	"unicode"
)

// greetingPhrases is the small-talk vocabulary.
var greetingPhrases = []string{
	"hello",
	"hi",
	"hey",
	"good morning",
	"good afternoon",
	"good evening",
	"how are you",
	"thanks",
	"thank you",
}

// maxGreetingWords bounds how long a greeting may be.
const maxGreetingWords = 3

// IsGreeting is the default small-talk classifier. It is a heuristic: a
// question of at most three words containing a greeting phrase as whole words.
func IsGreeting(question string) bool {
	words := normalizeWords(question)
	if len(words) == 0 || len(words) > maxGreetingWords {
		return false
	}
	return containsPhrase(words)
}

func containsPhrase(words []string) bool {
	joined := " " + strings.Join(words, " ") + " "
	for _, phrase := range greetingPhrases {
		if strings.Contains(joined, " "+phrase+" ") {
			return true
		}
	}
	return false
}

func normalizeWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
