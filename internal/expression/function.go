package expression

import (
	"fmt"
	"strings"
)

// ArgumentType is the declared type of a function argument.
type ArgumentType int

const (
	// ArgNumber accepts any numeric token value.
	ArgNumber ArgumentType = iota
	// ArgInteger accepts only base-10 integer token values.
	ArgInteger
)

// String returns the string representation of the argument type.
func (t ArgumentType) String() string {
	if t == ArgInteger {
		return "integer"
	}
	return "number"
}

// MarshalText implements encoding.TextMarshaler.
func (t ArgumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ArgumentType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "number", "double", "float":
		*t = ArgNumber
	case "integer", "int":
		*t = ArgInteger
	default:
		return fmt.Errorf("unknown argument type %q", string(text))
	}
	return nil
}

// Argument describes one declared function argument.
type Argument struct {
	Name string       `json:"name" yaml:"name"`
	Type ArgumentType `json:"type" yaml:"type"`
}

// Func is a function evaluation rule. Arguments arrive in the order they are
// popped off the value stack: the last argument written in the expression
// comes first.
type Func func(args []float64) (float64, error)

// FunctionDefinition describes a function callable from expressions.
type FunctionDefinition struct {
	Name        string     `json:"name" yaml:"name"`
	Arguments   []Argument `json:"arguments" yaml:"arguments"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Invoke      Func       `json:"-" yaml:"-"`
}

// NewFunction creates a FunctionDefinition.
func NewFunction(name string, fn Func, args ...Argument) *FunctionDefinition {
	return &FunctionDefinition{
		Name:      name,
		Arguments: args,
		Invoke:    fn,
	}
}

// WithDescription sets the description and returns the definition.
func (f *FunctionDefinition) WithDescription(desc string) *FunctionDefinition {
	f.Description = desc
	return f
}

// ArgumentCount returns the number of values the function consumes.
func (f *FunctionDefinition) ArgumentCount() int {
	return len(f.Arguments)
}

// Key returns the overload key: the name followed by the argument types.
func (f *FunctionDefinition) Key() string {
	parts := make([]string, 0, len(f.Arguments)+1)
	parts = append(parts, f.Name)
	for _, arg := range f.Arguments {
		parts = append(parts, arg.Type.String())
	}
	return strings.Join(parts, "_")
}

// Signature returns a human readable form such as max(a number, b number).
func (f *FunctionDefinition) Signature() string {
	args := make([]string, len(f.Arguments))
	for i, arg := range f.Arguments {
		args[i] = arg.Name + " " + arg.Type.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

// Number declares a number argument.
func Number(name string) Argument {
	return Argument{Name: name, Type: ArgNumber}
}

// Integer declares an integer argument.
func Integer(name string) Argument {
	return Argument{Name: name, Type: ArgInteger}
}
