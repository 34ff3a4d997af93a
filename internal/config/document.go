package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// readFile reads a required input, mapping absence to KindMissingFile.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, MissingFile(path, nil)
		}
		return nil, &Error{Kind: KindMissingFile, Path: path, Message: "cannot read file", Err: err}
	}
	return data, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected trailing data after JSON document")
	}
	return v, nil
}

// ReadObject loads a JSON (or YAML, by extension) document whose top level
// must be an object.
func ReadObject(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var v any
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, Malformed(path, err)
		}
	} else {
		v, err = decodeJSON(data)
		if err != nil {
			return nil, Malformed(path, err)
		}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, Malformed(path, fmt.Errorf("top-level value must be an object, got %s", typeName(v)))
	}
	return obj, nil
}

// CompileSchema compiles an embedded JSON schema (draft 2020-12).
func CompileSchema(name, src string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://policygate.local/schemas/%s.schema.json", name)
	if err := c.AddResource(schemaURL, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("schema %s load failed: %w", name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema %s compile failed: %w", name, err)
	}
	return compiled, nil
}

// MustCompileSchema is CompileSchema for package-level schema variables.
func MustCompileSchema(name, src string) *jsonschema.Schema {
	s, err := CompileSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadJSON reads a JSON document, validates it against schema and decodes it
// into out. Structural problems surface as KindMalformed.
func LoadJSON(path string, schema *jsonschema.Schema, out any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	raw, err := decodeJSON(data)
	if err != nil {
		return Malformed(path, err)
	}
	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return Malformed(path, err)
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return Malformed(path, err)
	}
	return nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
