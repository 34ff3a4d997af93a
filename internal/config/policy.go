package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportedPolicySchema is the range of policy document versions this build
// understands.
const SupportedPolicySchema = "^1.0.0"

// Policy is the loaded PolicyConfig document: one section per check identity.
// It is immutable once loaded. No defaults are ever filled in: every accessor
// fails with a *Error when the requested field is absent or unusable.
type Policy struct {
	path    string
	version *semver.Version
	root    map[string]any
}

// LoadPolicy reads the policy document at path and checks its schemaVersion.
func LoadPolicy(path string) (*Policy, error) {
	root, err := ReadObject(path)
	if err != nil {
		return nil, err
	}

	raw, ok := root["schemaVersion"]
	if !ok {
		return nil, MissingField(path, "schemaVersion")
	}
	s, ok := raw.(string)
	if !ok {
		// Unquoted versions such as 1.0 arrive as numbers.
		if n, isNumber := raw.(json.Number); isNumber {
			s, ok = n.String(), true
		} else if f, finite := CoerceFinite(raw); finite {
			s, ok = FormatNumber(f), true
		}
	}
	if !ok || strings.TrimSpace(s) == "" {
		return nil, InvalidValue(path, "schemaVersion", "must be a non-empty version string or number")
	}
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, InvalidValue(path, "schemaVersion", fmt.Sprintf("not a semantic version: %v", err))
	}
	constraint, err := semver.NewConstraint(SupportedPolicySchema)
	if err != nil {
		return nil, fmt.Errorf("invalid supported schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return nil, InvalidValue(path, "schemaVersion", fmt.Sprintf("version %s is not supported (want %s)", v, SupportedPolicySchema))
	}

	return &Policy{path: path, version: v, root: root}, nil
}

func (p *Policy) Path() string {
	return p.path
}

func (p *Policy) Version() string {
	return p.version.String()
}

// Section returns the thresholds declared for one check identity.
func (p *Policy) Section(name string) (*Section, error) {
	return sectionOf(p.path, "", p.root, name)
}

// Section is a view over one object inside the policy document. Keys in
// errors are reported dotted from the document root.
type Section struct {
	path   string
	prefix string
	values map[string]any
}

func sectionOf(path, prefix string, values map[string]any, name string) (*Section, error) {
	key := joinKey(prefix, name)
	raw, ok := values[name]
	if !ok {
		return nil, MissingField(path, key)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, InvalidValue(path, key, fmt.Sprintf("must be an object, got %s", typeName(raw)))
	}
	return &Section{path: path, prefix: key, values: obj}, nil
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Key returns the dotted key of a field in this section.
func (s *Section) Key(name string) string {
	return joinKey(s.prefix, name)
}

// Path returns the document the section was read from.
func (s *Section) Path() string {
	return s.path
}

// Has reports whether the field is present at all.
func (s *Section) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Keys returns the section's field names, sorted.
func (s *Section) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Section returns a nested object.
func (s *Section) Section(name string) (*Section, error) {
	return sectionOf(s.path, s.prefix, s.values, name)
}

// Number returns a required finite numeric field. Numeric strings are
// accepted when they parse to a finite number.
func (s *Section) Number(name string) (float64, error) {
	raw, ok := s.values[name]
	if !ok {
		return 0, MissingField(s.path, s.Key(name))
	}
	f, ok := CoerceFinite(raw)
	if !ok {
		return 0, InvalidValue(s.path, s.Key(name), fmt.Sprintf("must be a finite number, got %s", describe(raw)))
	}
	return f, nil
}

// NonNegative is Number with a lower bound of zero.
func (s *Section) NonNegative(name string) (float64, error) {
	f, err := s.Number(name)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, InvalidValue(s.path, s.Key(name), fmt.Sprintf("must not be negative, got %s", FormatNumber(f)))
	}
	return f, nil
}

// String returns a required non-empty string field.
func (s *Section) String(name string) (string, error) {
	raw, ok := s.values[name]
	if !ok {
		return "", MissingField(s.path, s.Key(name))
	}
	str, ok := raw.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return "", InvalidValue(s.path, s.Key(name), fmt.Sprintf("must be a non-empty string, got %s", describe(raw)))
	}
	return strings.TrimSpace(str), nil
}

// StringList returns a required array of strings. An empty array is valid.
func (s *Section) StringList(name string) ([]string, error) {
	raw, ok := s.values[name]
	if !ok {
		return nil, MissingField(s.path, s.Key(name))
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, InvalidValue(s.path, s.Key(name), fmt.Sprintf("must be an array of strings, got %s", describe(raw)))
	}
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		str, ok := item.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return nil, InvalidValue(s.path, fmt.Sprintf("%s[%d]", s.Key(name), i), fmt.Sprintf("must be a non-empty string, got %s", describe(item)))
		}
		out = append(out, strings.TrimSpace(str))
	}
	return out, nil
}

// NumberMap returns a required object whose values are all finite numbers.
// An empty object is valid.
func (s *Section) NumberMap(name string) (map[string]float64, error) {
	raw, ok := s.values[name]
	if !ok {
		return nil, MissingField(s.path, s.Key(name))
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, InvalidValue(s.path, s.Key(name), fmt.Sprintf("must be an object of numbers, got %s", describe(raw)))
	}
	out := make(map[string]float64, len(obj))
	for k, v := range obj {
		f, ok := CoerceFinite(v)
		if !ok {
			return nil, InvalidValue(s.path, fmt.Sprintf("%s[%s]", s.Key(name), k), fmt.Sprintf("must be a finite number, got %s", describe(v)))
		}
		if f < 0 {
			return nil, InvalidValue(s.path, fmt.Sprintf("%s[%s]", s.Key(name), k), fmt.Sprintf("must not be negative, got %s", FormatNumber(f)))
		}
		out[k] = f
	}
	return out, nil
}

// CoerceFinite converts a decoded JSON/YAML value to a finite float64.
func CoerceFinite(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a threshold or measurement without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func describe(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return typeName(v)
	}
}
