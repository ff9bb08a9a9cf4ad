package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON_DirectObject(t *testing.T) {
	got := ExtractJSON(`  {"routine_name": "Test", "days": []}  `)
	if got == nil {
		t.Fatal("expected extraction to succeed")
	}
	var doc map[string]any
	if err := json.Unmarshal(got, &doc); err != nil {
		t.Fatalf("extracted bytes are not valid JSON: %v", err)
	}
	if doc["routine_name"] != "Test" {
		t.Errorf("routine_name = %v, want Test", doc["routine_name"])
	}
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Aquí tienes la rutina:\n```json\n{\"routine_name\": \"Fenced\"}\n```\n¡Espero que te guste!"
	got := ExtractJSON(text)
	if got == nil {
		t.Fatal("expected extraction to succeed")
	}
	if string(got) != `{"routine_name": "Fenced"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSON_FencedBlockWithoutTag(t *testing.T) {
	got := ExtractJSON("```\n{\"a\": 1}\n```")
	if string(got) != `{"a": 1}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSON_FirstFencedBlockWins(t *testing.T) {
	text := "```json\n{\"first\": true}\n```\ntexto\n```json\n{\"second\": true}\n```"
	got := ExtractJSON(text)
	if string(got) != `{"first": true}` {
		t.Errorf("got %q, want first block", got)
	}
}

func TestExtractJSON_BraceSubstring(t *testing.T) {
	got := ExtractJSON(`La rutina es {"routine_name": "Braces"} como pediste.`)
	if string(got) != `{"routine_name": "Braces"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSON_Idempotent(t *testing.T) {
	// Running extraction on its own output must return the same bytes.
	inputs := []string{
		`{"routine_name": "X", "days": [{"day_name": "Lunes"}]}`,
		"```json\n{\"routine_name\": \"Y\"}\n```",
	}
	for _, in := range inputs {
		first := ExtractJSON(in)
		if first == nil {
			t.Fatalf("extraction failed for %q", in)
		}
		second := ExtractJSON(string(first))
		if string(first) != string(second) {
			t.Errorf("not idempotent: %q then %q", first, second)
		}
	}
}

func TestExtractJSON_Failure(t *testing.T) {
	cases := []string{
		"",
		"No puedo generar una rutina ahora mismo.",
		"```json\nno es json\n```",
		"{rotas llaves",
		"{ \"unterminated\": ",
	}
	for _, in := range cases {
		if got := ExtractJSON(in); got != nil {
			t.Errorf("ExtractJSON(%q) = %q, want nil", in, got)
		}
	}
}
