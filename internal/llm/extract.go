package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON recovers a JSON object from raw completion text. Providers
// wrap their output in prose or markdown inconsistently, so recovery is
// staged, first success wins:
//
//  1. Parse the trimmed text directly as a JSON object.
//  2. Parse the content of the first fenced code block (``` or ```json).
//  3. Parse the substring from the first '{' to the last '}'.
//
// Returns nil when all three stages fail. Callers must treat nil (or a
// parsed object missing its required fields) as an extraction failure,
// never as a valid empty document.
func ExtractJSON(text string) []byte {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return []byte(trimmed)
	}

	if block := firstFencedBlock(text); block != "" && json.Valid([]byte(block)) {
		return []byte(block)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate)
		}
	}

	return nil
}

// firstFencedBlock returns the content of the first triple-backtick code
// block, with an optional "json" tag on the opening fence stripped.
// A response with several blocks yields only the first.
func firstFencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	rest := text[start+3:]
	if strings.HasPrefix(rest, "json") {
		rest = rest[len("json"):]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
