package explain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

const sampleText = "A merkle tree hashes data in pairs until one root hash remains."

func validExplainJSON() map[string]any {
	return map[string]any{
		"topic": "merkle trees",
		"root": map[string]any{
			"id":   "root",
			"text": sampleText,
			"expandableTerms": []any{
				map[string]any{"id": "t1", "term": "merkle tree", "startIndex": 2, "endIndex": 13, "summary": "A hash tree"},
				map[string]any{"id": "t2", "term": "root hash", "startIndex": 45, "endIndex": 54},
			},
		},
		"metadata": map[string]any{
			"estimatedReadTime":    60,
			"complexityLevel":      "intermediate",
			"totalExpandableTerms": 2,
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func rootOf(v map[string]any) map[string]any {
	return v["root"].(map[string]any)
}

func termsOf(v map[string]any) []any {
	return rootOf(v)["expandableTerms"].([]any)
}

func TestParseExplainResponse_ValidPasses(t *testing.T) {
	resp, err := ParseExplainResponse(mustJSON(t, validExplainJSON()))
	if err != nil {
		t.Fatalf("expected valid response, got %v", err)
	}
	if resp.Root.ID != RootID {
		t.Errorf("expected root id %q, got %q", RootID, resp.Root.ID)
	}
	if len(resp.Root.ExpandableTerms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(resp.Root.ExpandableTerms))
	}
	if resp.Root.ExpandableTerms[0].Summary != "A hash tree" {
		t.Errorf("expected summary preserved, got %q", resp.Root.ExpandableTerms[0].Summary)
	}
	if resp.Root.ExpandableTerms[1].Summary != "" {
		t.Errorf("expected empty optional summary")
	}
	if resp.Metadata.ComplexityLevel != "intermediate" || resp.Metadata.TotalExpandableTerms != 2 {
		t.Errorf("unexpected metadata %+v", resp.Metadata)
	}
}

func TestParseExplainResponse_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v map[string]any)
		field  string
	}{
		{"missing topic", func(v map[string]any) { delete(v, "topic") }, "topic"},
		{"topic not string", func(v map[string]any) { v["topic"] = 3 }, "topic"},
		{"missing root", func(v map[string]any) { delete(v, "root") }, "root"},
		{"empty root id", func(v map[string]any) { rootOf(v)["id"] = "" }, "root.id"},
		{"text not string", func(v map[string]any) { rootOf(v)["text"] = nil }, "root.text"},
		{"missing terms", func(v map[string]any) { delete(rootOf(v), "expandableTerms") }, "root.expandableTerms"},
		{"terms not array", func(v map[string]any) { rootOf(v)["expandableTerms"] = "x" }, "root.expandableTerms"},
		{"term not object", func(v map[string]any) { rootOf(v)["expandableTerms"] = []any{"x"} }, "root.expandableTerms[0]"},
		{"term missing id", func(v map[string]any) { delete(termsOf(v)[0].(map[string]any), "id") }, "root.expandableTerms[0].id"},
		{"term missing term", func(v map[string]any) { delete(termsOf(v)[1].(map[string]any), "term") }, "root.expandableTerms[1].term"},
		{"startIndex string", func(v map[string]any) { termsOf(v)[0].(map[string]any)["startIndex"] = "2" }, "root.expandableTerms[0].startIndex"},
		{"startIndex fractional", func(v map[string]any) { termsOf(v)[0].(map[string]any)["startIndex"] = 2.5 }, "root.expandableTerms[0].startIndex"},
		{"negative start", func(v map[string]any) { termsOf(v)[0].(map[string]any)["startIndex"] = -1 }, "root.expandableTerms[0].startIndex"},
		{"end before start", func(v map[string]any) { termsOf(v)[0].(map[string]any)["endIndex"] = 2 }, "root.expandableTerms[0].endIndex"},
		{"end past text", func(v map[string]any) { termsOf(v)[1].(map[string]any)["endIndex"] = 500 }, "root.expandableTerms[1].endIndex"},
		{"duplicate id", func(v map[string]any) { termsOf(v)[1].(map[string]any)["id"] = "t1" }, "root.expandableTerms[1].id"},
		{"summary not string", func(v map[string]any) { termsOf(v)[0].(map[string]any)["summary"] = 1 }, "root.expandableTerms[0].summary"},
		{"missing metadata", func(v map[string]any) { delete(v, "metadata") }, "metadata"},
		{"read time string", func(v map[string]any) { v["metadata"].(map[string]any)["estimatedReadTime"] = "60" }, "metadata.estimatedReadTime"},
		{"missing complexity", func(v map[string]any) { delete(v["metadata"].(map[string]any), "complexityLevel") }, "metadata.complexityLevel"},
		{"missing total", func(v map[string]any) { delete(v["metadata"].(map[string]any), "totalExpandableTerms") }, "metadata.totalExpandableTerms"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := validExplainJSON()
			tc.mutate(v)
			_, err := ParseExplainResponse(mustJSON(t, v))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %q, got %q (%s)", tc.field, verr.Field, verr.Reason)
			}
		})
	}
}

func TestParseExplainResponse_EmptyTermsAndTextAllowed(t *testing.T) {
	v := validExplainJSON()
	rootOf(v)["text"] = ""
	rootOf(v)["expandableTerms"] = []any{}
	resp, err := ParseExplainResponse(mustJSON(t, v))
	if err != nil {
		t.Fatalf("expected empty text and terms to pass, got %v", err)
	}
	if resp.Root.ExpandableTerms == nil {
		t.Error("expected non-nil empty terms slice")
	}
}

func TestParseExplainResponse_IntegralFloatAccepted(t *testing.T) {
	raw := strings.Replace(string(mustJSON(t, validExplainJSON())), `"startIndex":2`, `"startIndex":2.0`, 1)
	resp, err := ParseExplainResponse([]byte(raw))
	if err != nil {
		t.Fatalf("expected 2.0 to be accepted as integer, got %v", err)
	}
	if resp.Root.ExpandableTerms[0].StartIndex != 2 {
		t.Errorf("expected startIndex 2, got %d", resp.Root.ExpandableTerms[0].StartIndex)
	}
}

func TestParseExplainResponse_SyntaxErrors(t *testing.T) {
	inputs := []string{"", "not json", `{"topic":`, `{"a":1} {"b":2}`}
	for _, in := range inputs {
		_, err := ParseExplainResponse([]byte(in))
		if err == nil {
			t.Errorf("expected error for %q", in)
			continue
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			t.Errorf("expected syntax error, not ValidationError, for %q", in)
		}
	}
}

func TestParseExplainResponse_NotObject(t *testing.T) {
	_, err := ParseExplainResponse([]byte(`[1,2,3]`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for array, got %v", err)
	}
}

func TestParseExplainResponse_OffsetsCountRunes(t *testing.T) {
	text := "Café ordering uses a hash."
	v := validExplainJSON()
	rootOf(v)["text"] = text
	n := utf8.RuneCountInString(text)
	rootOf(v)["expandableTerms"] = []any{
		map[string]any{"id": "t1", "term": "hash", "startIndex": n - 5, "endIndex": n - 1},
	}
	resp, err := ParseExplainResponse(mustJSON(t, v))
	if err != nil {
		t.Fatalf("expected rune offsets to validate, got %v", err)
	}
	spans := ResolveSpans(resp.Root)
	if len(spans) != 1 || !spans[0].Aligned {
		t.Errorf("expected aligned span on rune offsets, got %+v", spans)
	}
}

func TestParseExpandResponse(t *testing.T) {
	raw := `{"termId":"whatever","node":{"id":"n1","text":"A hash maps input to a digest.","expandableTerms":[{"id":"d","term":"digest","startIndex":23,"endIndex":29}]}}`
	resp, err := ParseExpandResponse([]byte(raw))
	if err != nil {
		t.Fatalf("expected valid expand response, got %v", err)
	}
	if resp.TermID != "whatever" || resp.Node.ID != "n1" {
		t.Errorf("unexpected response %+v", resp)
	}

	_, err = ParseExpandResponse([]byte(`{"termId":"x"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "node" {
		t.Fatalf("expected node violation, got %v", err)
	}

	_, err = ParseExpandResponse([]byte(`{"node":{"id":"n","text":"","expandableTerms":[]}}`))
	if !errors.As(err, &verr) || verr.Field != "termId" {
		t.Fatalf("expected termId violation, got %v", err)
	}
}

func TestValidateNode(t *testing.T) {
	n := ExplanationNode{ID: "n", Text: "short", ExpandableTerms: []ExpandableTerm{{ID: "a", Term: "short", StartIndex: 0, EndIndex: 5}}}
	if err := ValidateNode(n); err != nil {
		t.Fatalf("expected valid node, got %v", err)
	}
	n.ExpandableTerms[0].EndIndex = 6
	if err := ValidateNode(n); err == nil {
		t.Fatal("expected out-of-bounds offset to fail")
	}
	if err := ValidateNode(ExplanationNode{}); err == nil {
		t.Fatal("expected empty id to fail")
	}
}
