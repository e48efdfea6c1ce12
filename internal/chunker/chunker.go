package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the chunk length used when none is configured.
const DefaultMaxLength = 512

// sentenceSeparator is the only boundary the splitter recognizes.
const sentenceSeparator = ". "

// Sentences splits text on the literal ". " separator and restores the
// separator on every sentence but the last, so joining the result
// reproduces the input exactly.
func Sentences(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, sentenceSeparator)
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += sentenceSeparator
	}
	return parts
}

// Split greedily packs whole sentences into chunks of at most maxLength
// characters (runes, after trimming). A sentence longer than maxLength on its
// own becomes a chunk by itself, unsplit. Blank sentences are dropped and no
// returned chunk is empty. maxLength <= 0 selects DefaultMaxLength.
func Split(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		chunks []string
		buffer strings.Builder
	)
	flush := func() {
		if chunk := strings.TrimSpace(buffer.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		buffer.Reset()
	}

	for _, sentence := range Sentences(text) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		candidate := buffer.String() + sentence
		if buffer.Len() == 0 || length(candidate) <= maxLength {
			buffer.WriteString(sentence)
			continue
		}
		flush()
		buffer.WriteString(sentence)
	}
	flush()

	return chunks
}

func length(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
