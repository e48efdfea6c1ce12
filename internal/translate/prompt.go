package translate

import (
	"fmt"

	"tolk/internal/language"
)

// systemPrompt instructs chat models to return nothing but the translation.
const systemPrompt = `You are a professional translator. Translate the user's text from %s to %s.

Rules:

- Respond ONLY with the translated text. No explanations, notes, quotes, or labels.
- Preserve sentence boundaries, punctuation, numbers, and proper names.
- If the text is already in %s, return it unchanged.`

func buildSystemPrompt(req Request) string {
	source := language.DisplayName(req.SourceLang)
	if req.SourceLang == "" {
		source = "the detected source language"
	}
	target := language.DisplayName(req.TargetLang)
	return fmt.Sprintf(systemPrompt, source, target, target)
}
