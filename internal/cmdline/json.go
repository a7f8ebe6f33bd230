package cmdline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// options has the same fields as Options without its methods, so the json
// package can encode it without recursion.
type options Options

func (o *Options) MarshalJSON() ([]byte, error) {
	if o.raw {
		return json.Marshal(o.line)
	}
	return json.Marshal((*options)(o))
}

// UnmarshalJSON decodes an object into structured options starting from the
// zero value, or a string into raw options.
func (o *Options) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var line string
		if err := json.Unmarshal(b, &line); err != nil {
			return err
		}
		*o = Options{raw: true, line: line}
		return nil
	}
	var decoded options
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*o = Options(decoded)
	return nil
}

// ToJSON encodes o, optionally indented.
func (o *Options) ToJSON(indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(o, "", "  ")
	}
	return json.Marshal(o)
}

// FromJSON decodes and validates options produced by ToJSON.
func FromJSON(b []byte) (*Options, error) {
	var o Options
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (w *WorkflowVariable) UnmarshalJSON(b []byte) error {
	var aux struct {
		Name  string        `json:"name"`
		Value string        `json:"value"`
		Type  *VariableType `json:"type"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Type == nil {
		return fmt.Errorf("workflow variable %q: %w: missing type", aux.Name, ErrUnknownVariableType)
	}
	*w = WorkflowVariable{Name: aux.Name, Value: aux.Value, Type: *aux.Type}
	return nil
}
