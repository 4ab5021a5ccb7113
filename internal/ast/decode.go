package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// DecodeError reports a tree that could not be decoded.
// Pos is set for CUE sources when the CUE SDK reports a position.
type DecodeError struct {
	Format  string
	Message string
	Pos     token.Pos
}

func (e *DecodeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Format, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Format, e.Message)
}

// DecodeJSON decodes a single JSON document into a normalized tree.
// Trailing data after the first value is an error.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &DecodeError{Format: "json", Message: err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Format: "json", Message: "unexpected data after top-level value"}
	}

	return normalizeAs("json", raw)
}

// DecodeYAML decodes a single YAML document into a normalized tree.
func DecodeYAML(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Format: "yaml", Message: err.Error()}
	}
	return normalizeAs("yaml", raw)
}

// DecodeYAMLNode decodes an already parsed YAML subtree, such as an inline
// tree embedded in a larger document.
func DecodeYAMLNode(n *yaml.Node) (any, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, &DecodeError{Format: "yaml", Message: err.Error()}
	}
	return normalizeAs("yaml", raw)
}

// DecodeCUE evaluates a CUE source and decodes its root value.
// The value must be concrete: a tree, not a schema.
func DecodeCUE(data []byte, filename string) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err)
	}

	out, err := v.MarshalJSON()
	if err != nil {
		return nil, cueError(err)
	}
	return DecodeJSON(out)
}

// cueError converts the first CUE error into a DecodeError with position.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DecodeError{Format: "cue", Message: err.Error()}
	}

	first := errs[0]
	decErr := &DecodeError{Format: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		decErr.Pos = positions[0]
	}
	return decErr
}

// LoadFile reads and decodes a tree, picking the decoder by extension:
// .json, .yaml/.yml, or .cue.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DecodeJSON(data)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".cue":
		return DecodeCUE(data, path)
	default:
		return nil, &DecodeError{Format: strings.TrimPrefix(ext, "."), Message: fmt.Sprintf("unsupported file extension %q", ext)}
	}
}

func normalizeAs(format string, raw any) (any, error) {
	tree, err := normalize(raw)
	if err != nil {
		return nil, &DecodeError{Format: format, Message: err.Error()}
	}
	return tree, nil
}

// normalize converts decoder output into the canonical in-memory shape:
// objects become Node, integers int64, other numbers float64.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return f, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(Node, len(val))
		for k, elem := range val {
			n, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		// yaml.v3 produces this for mappings with non-string keys.
		out := make(Node, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v (%T)", k, k)
			}
			n, err := normalize(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
