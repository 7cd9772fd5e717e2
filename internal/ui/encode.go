package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes v to w. On a terminal it is indented and highlighted,
// otherwise it is compact, one value per line.
func WriteJSON(w io.Writer, v any, tty bool) error {
	if !tty {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return writeCode(w, "json", string(data))
}

// WriteRawJSON is WriteJSON for an already-encoded document. Invalid JSON is
// written through unchanged.
func WriteRawJSON(w io.Writer, raw []byte, tty bool) error {
	var buf bytes.Buffer
	if tty {
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			_, err = fmt.Fprintf(w, "%s\n", bytes.TrimSpace(raw))
			return err
		}
		return writeCode(w, "json", buf.String())
	}
	if err := json.Compact(&buf, raw); err != nil {
		buf.Reset()
		buf.Write(bytes.TrimSpace(raw))
	}
	_, err := fmt.Fprintf(w, "%s\n", buf.Bytes())
	return err
}

// WriteYAML writes v as YAML with two-space indentation, highlighted on a
// terminal. A *yaml.Node keeps its key order and comments.
func WriteYAML(w io.Writer, v any, tty bool) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return WriteCode(w, "yaml", buf.String(), tty)
}

// WriteYAMLDocument parses data and writes it back through WriteYAML.
func WriteYAMLDocument(w io.Writer, data []byte, tty bool) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 {
		return fmt.Errorf("parse yaml: empty document")
	}
	return WriteYAML(w, &doc, tty)
}

// WriteCode writes source code, highlighted on a terminal and verbatim otherwise.
func WriteCode(w io.Writer, language, code string, tty bool) error {
	if !tty {
		_, err := io.WriteString(w, code)
		if err == nil && (len(code) == 0 || code[len(code)-1] != '\n') {
			_, err = io.WriteString(w, "\n")
		}
		return err
	}
	return writeCode(w, language, code)
}

func writeCode(w io.Writer, language, code string) error {
	rendered, err := RenderCode(language, code)
	if err != nil {
		// Fall back to plain text rather than failing the command.
		rendered = code + "\n"
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// YAMLToJSON converts a YAML document to indented JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := json.MarshalIndent(jsonCompatible(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// jsonCompatible rewrites map[any]any nodes (non-string YAML keys) so
// encoding/json accepts them.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = jsonCompatible(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = jsonCompatible(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = jsonCompatible(child)
		}
		return t
	default:
		return v
	}
}
