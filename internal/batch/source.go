package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/qri-io/jsonschema"

	"github.com/tariel36/rpncalc/internal/expression"
)

// DefaultJSONPath selects every element of a top-level array.
const DefaultJSONPath = "$[*]"

var ErrNoExpressions = errors.New("no expressions selected")

// ReadLines returns one expression per non-blank line. Lines starting with
// '#' are comments.
func ReadLines(r io.Reader) ([]string, error) {
	var exprs []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exprs = append(exprs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read expressions: %w", err)
	}
	return exprs, nil
}

// SelectJSON parses data and returns the values matched by path. Matches
// must be strings or numbers; numbers become their formatted text.
func SelectJSON(data []byte, path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultJSONPath
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}

	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse JSON input: %w", err)
	}

	matches := x.Get(doc)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: JSONPath %q matched nothing", ErrNoExpressions, path)
	}

	exprs := make([]string, 0, len(matches))
	for i, m := range matches {
		switch v := m.(type) {
		case string:
			exprs = append(exprs, v)
		case int64:
			exprs = append(exprs, expression.FormatNumber(float64(v)))
		case float64:
			exprs = append(exprs, expression.FormatNumber(v))
		default:
			return nil, fmt.Errorf("match %d of %q is %T, want string", i, path, m)
		}
	}
	return exprs, nil
}

// Schema validates JSON batch input.
type Schema struct {
	schema *jsonschema.Schema
}

// ParseSchema parses a JSON Schema document.
func ParseSchema(data []byte) (*Schema, error) {
	s := &jsonschema.Schema{}
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// Validate checks data against the schema and reports every violation.
func (s *Schema) Validate(ctx context.Context, data []byte) error {
	keyErrs, err := s.schema.ValidateBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("validate input: %w", err)
	}
	if len(keyErrs) == 0 {
		return nil
	}
	msgs := make([]string, len(keyErrs))
	for i, ke := range keyErrs {
		msgs[i] = ke.Error()
	}
	return fmt.Errorf("input does not match schema: %s", strings.Join(msgs, "; "))
}
