package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Syntax tags which textual representation an EditorText holds.
type Syntax string

const (
	SyntaxYAML Syntax = "yaml"
	SyntaxJSON Syntax = "json"
)

// EditorText is a serialized document plus the syntax it represents.
type EditorText struct {
	Text   string `json:"text"`
	Syntax Syntax `json:"syntax"`
}

// SyntaxError reports text that does not parse under its tagged syntax.
// It is a local, recoverable condition: editing continues, apply is
// blocked until the text parses again.
type SyntaxError struct {
	Syntax  Syntax
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Syntax, e.Message)
}

// ToText renders the document in the requested syntax. YAML uses
// 2-space indentation with no anchors or aliases; JSON uses 2-space
// indentation. Map keys are emitted in sorted order, which is stable
// and deterministic across calls.
func ToText(doc Document, syntax Syntax) (EditorText, error) {
	norm := Normalize(doc)
	switch syntax {
	case SyntaxYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(norm)); err != nil {
			return EditorText{}, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return EditorText{}, fmt.Errorf("encode yaml: %w", err)
		}
		return EditorText{Text: buf.String(), Syntax: SyntaxYAML}, nil
	case SyntaxJSON:
		b, err := json.MarshalIndent(map[string]any(norm), "", "  ")
		if err != nil {
			return EditorText{}, fmt.Errorf("encode json: %w", err)
		}
		return EditorText{Text: string(b) + "\n", Syntax: SyntaxJSON}, nil
	default:
		return EditorText{}, fmt.Errorf("unsupported syntax %q", syntax)
	}
}

// ToDocument parses the text under its tagged syntax. Parse failures
// return a *SyntaxError carrying the underlying parser message.
func ToDocument(text EditorText) (Document, error) {
	switch text.Syntax {
	case SyntaxYAML:
		var m map[string]any
		if err := yaml.Unmarshal([]byte(text.Text), &m); err != nil {
			return nil, &SyntaxError{Syntax: SyntaxYAML, Message: err.Error()}
		}
		return Normalize(Document(m)), nil
	case SyntaxJSON:
		dec := json.NewDecoder(bytes.NewReader([]byte(text.Text)))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, &SyntaxError{Syntax: SyntaxJSON, Message: err.Error()}
		}
		return Normalize(normalizeJSONNumbers(m)), nil
	default:
		return nil, fmt.Errorf("unsupported syntax %q", text.Syntax)
	}
}

// Convert re-renders text in the target syntax. The conversion always
// round-trips through the structured document so it is semantically
// lossless; it never rewrites text directly.
func Convert(text EditorText, target Syntax) (EditorText, error) {
	doc, err := ToDocument(text)
	if err != nil {
		return EditorText{}, err
	}
	return ToText(doc, target)
}

func normalizeJSONNumbers(m map[string]any) Document {
	var walk func(v any) any
	walk = func(v any) any {
		switch t := v.(type) {
		case json.Number:
			if i, err := t.Int64(); err == nil {
				return i
			}
			f, _ := t.Float64()
			return f
		case map[string]any:
			for k, val := range t {
				t[k] = walk(val)
			}
			return t
		case []any:
			for i, val := range t {
				t[i] = walk(val)
			}
			return t
		default:
			return v
		}
	}
	walk(m)
	return Document(m)
}
