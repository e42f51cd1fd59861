package explain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"
)

// ParseExplainResponse decodes raw generator output and checks it against the
// ExplainResponse contract. A JSON syntax failure is returned as a plain error;
// a shape violation as *ValidationError.
func ParseExplainResponse(raw []byte) (*ExplainResponse, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	topic, err := reqString(obj, "topic", "")
	if err != nil {
		return nil, err
	}
	rootObj, err := reqObject(obj, "root", "")
	if err != nil {
		return nil, err
	}
	root, err := validateNode(rootObj, "root")
	if err != nil {
		return nil, err
	}
	metaObj, err := reqObject(obj, "metadata", "")
	if err != nil {
		return nil, err
	}
	readTime, err := reqNumber(metaObj, "estimatedReadTime", "metadata")
	if err != nil {
		return nil, err
	}
	level, err := reqString(metaObj, "complexityLevel", "metadata")
	if err != nil {
		return nil, err
	}
	total, err := reqNumber(metaObj, "totalExpandableTerms", "metadata")
	if err != nil {
		return nil, err
	}

	return &ExplainResponse{
		Topic: topic,
		Root:  root,
		Metadata: Metadata{
			EstimatedReadTime:    readTime,
			ComplexityLevel:      level,
			TotalExpandableTerms: total,
		},
	}, nil
}

// ParseExpandResponse decodes raw generator output and checks it against the
// ExpandResponse contract.
func ParseExpandResponse(raw []byte) (*ExpandResponse, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	termID, err := reqString(obj, "termId", "")
	if err != nil {
		return nil, err
	}
	nodeObj, err := reqObject(obj, "node", "")
	if err != nil {
		return nil, err
	}
	node, err := validateNode(nodeObj, "node")
	if err != nil {
		return nil, err
	}
	return &ExpandResponse{TermID: termID, Node: node}, nil
}

// ValidateNode checks an already-typed node against the offset and id rules.
func ValidateNode(n ExplanationNode) error {
	if n.ID == "" {
		return &ValidationError{Field: "id", Reason: "must be a non-empty string"}
	}
	return checkTerms(n.Text, n.ExpandableTerms, "")
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse json: trailing data after value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "expected a JSON object"}
	}
	return obj, nil
}

func validateNode(obj map[string]any, path string) (ExplanationNode, error) {
	id, err := reqString(obj, "id", path)
	if err != nil {
		return ExplanationNode{}, err
	}
	if id == "" {
		return ExplanationNode{}, &ValidationError{Field: join(path, "id"), Reason: "must be a non-empty string"}
	}
	text, err := reqString(obj, "text", path)
	if err != nil {
		return ExplanationNode{}, err
	}

	termsPath := join(path, "expandableTerms")
	rawTerms, ok := obj["expandableTerms"]
	if !ok {
		return ExplanationNode{}, &ValidationError{Field: termsPath, Reason: "is required"}
	}
	list, ok := rawTerms.([]any)
	if !ok {
		return ExplanationNode{}, &ValidationError{Field: termsPath, Reason: "must be an array"}
	}

	terms := make([]ExpandableTerm, 0, len(list))
	for i, item := range list {
		tpath := fmt.Sprintf("%s[%d]", termsPath, i)
		tobj, ok := item.(map[string]any)
		if !ok {
			return ExplanationNode{}, &ValidationError{Field: tpath, Reason: "must be an object"}
		}
		term, err := validateTerm(tobj, tpath)
		if err != nil {
			return ExplanationNode{}, err
		}
		terms = append(terms, term)
	}

	if err := checkTerms(text, terms, path); err != nil {
		return ExplanationNode{}, err
	}
	return ExplanationNode{ID: id, Text: text, ExpandableTerms: terms}, nil
}

func validateTerm(obj map[string]any, path string) (ExpandableTerm, error) {
	var t ExpandableTerm
	var err error
	if t.ID, err = reqString(obj, "id", path); err != nil {
		return t, err
	}
	if t.Term, err = reqString(obj, "term", path); err != nil {
		return t, err
	}
	if t.StartIndex, err = reqInt(obj, "startIndex", path); err != nil {
		return t, err
	}
	if t.EndIndex, err = reqInt(obj, "endIndex", path); err != nil {
		return t, err
	}
	if v, ok := obj["summary"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return t, &ValidationError{Field: join(path, "summary"), Reason: "must be a string"}
		}
		t.Summary = s
	}
	return t, nil
}

// checkTerms enforces 0 <= start < end <= len(text) and id uniqueness.
func checkTerms(text string, terms []ExpandableTerm, path string) error {
	n := utf8.RuneCountInString(text)
	seen := make(map[string]bool, len(terms))
	for i, t := range terms {
		tpath := fmt.Sprintf("%s[%d]", join(path, "expandableTerms"), i)
		if t.ID == "" {
			return &ValidationError{Field: tpath + ".id", Reason: "must be a non-empty string"}
		}
		if seen[t.ID] {
			return &ValidationError{Field: tpath + ".id", Reason: fmt.Sprintf("duplicate term id %q", t.ID)}
		}
		seen[t.ID] = true
		if t.StartIndex < 0 {
			return &ValidationError{Field: tpath + ".startIndex", Reason: "must be >= 0"}
		}
		if t.EndIndex <= t.StartIndex {
			return &ValidationError{Field: tpath + ".endIndex", Reason: "must be greater than startIndex"}
		}
		if t.EndIndex > n {
			return &ValidationError{Field: tpath + ".endIndex", Reason: fmt.Sprintf("exceeds text length %d", n)}
		}
	}
	return nil
}

func reqObject(obj map[string]any, key, path string) (map[string]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, &ValidationError{Field: join(path, key), Reason: "is required"}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: join(path, key), Reason: "must be an object"}
	}
	return m, nil
}

func reqString(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", &ValidationError{Field: join(path, key), Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: join(path, key), Reason: "must be a string"}
	}
	return s, nil
}

func reqNumber(obj map[string]any, key, path string) (float64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, &ValidationError{Field: join(path, key), Reason: "is required"}
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, &ValidationError{Field: join(path, key), Reason: "must be a number"}
	}
	f, err := num.Float64()
	if err != nil {
		return 0, &ValidationError{Field: join(path, key), Reason: "must be a finite number"}
	}
	return f, nil
}

func reqInt(obj map[string]any, key, path string) (int, error) {
	f, err := reqNumber(obj, key, path)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &ValidationError{Field: join(path, key), Reason: "must be an integer"}
	}
	return int(f), nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
