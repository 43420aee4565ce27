// Package flowfile reads and writes flow documents: an ordered list of flat
// card definitions, stored as JSON or YAML.
package flowfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions with no known encoding.
var ErrUnknownFormat = errors.New("unknown flow file format")

// Extensions lists the file extensions recognized as flow documents.
var Extensions = []string{".json", ".yaml", ".yml"}

// FormatFor picks the format from the path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// IsFlowFile reports whether path has a flow document extension.
func IsFlowFile(path string) bool {
	_, err := FormatFor(path)
	return err == nil
}

// Decode reads a flow document. JSON numbers are kept as json.Number so
// large ids and counters survive a round trip unchanged.
func Decode(r io.Reader, format Format) ([]domain.Definition, error) {
	var raw []map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode json flow: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml flow: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}

	defs := make([]domain.Definition, 0, len(raw))
	for _, m := range raw {
		defs = append(defs, domain.Definition(m))
	}
	return defs, nil
}

// Encode writes defs in order.
func Encode(w io.Writer, format Format, defs []domain.Definition) error {
	if defs == nil {
		defs = []domain.Definition{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(defs); err != nil {
			return fmt.Errorf("failed to encode json flow: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlSafe(defs)); err != nil {
			return fmt.Errorf("failed to encode yaml flow: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// yamlSafe converts json.Number values into plain numbers so YAML does not
// quote them as strings.
func yamlSafe(defs []domain.Definition) []map[string]any {
	out := make([]map[string]any, len(defs))
	for i, def := range defs {
		out[i] = numbers(map[string]any(def)).(map[string]any)
	}
	return out
}

func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case domain.Definition:
		return numbers(map[string]any(t))
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = numbers(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = numbers(inner)
		}
		return s
	default:
		return v
	}
}

// Unmarshal decodes an in-memory document.
func Unmarshal(data []byte, format Format) ([]domain.Definition, error) {
	return Decode(bytes.NewReader(data), format)
}

// Marshal encodes defs into memory.
func Marshal(format Format, defs []domain.Definition) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, defs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read loads a flow document, choosing the format from the extension.
func Read(path string) ([]domain.Definition, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Unmarshal(data, format)
}

// Write saves a flow document, choosing the format from the extension.
func Write(path string, defs []domain.Definition) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Marshal(format, defs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	return nil
}
