package cmdline

import (
	"fmt"
	"strings"
)

// Renderer is a structured value with a single line command line form.
type Renderer interface {
	Render() string
}

func renderers[T Renderer](values []T) []Renderer {
	if len(values) == 0 {
		return nil
	}
	ret := make([]Renderer, len(values))
	for i, v := range values {
		ret[i] = v
	}
	return ret
}

// Credential is passed to the workflow as name;login;password.
// Password is only rendered together with a login.
type Credential struct {
	Name     string `json:"name" validate:"required"`
	Login    string `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
}

func (c Credential) Render() string {
	if c.Login == "" {
		return c.Name
	}
	if c.Password == "" {
		return c.Name + ";" + c.Login
	}
	return c.Name + ";" + c.Login + ";" + c.Password
}

// MasterKey is the key used to decrypt the workflow's stored credentials.
type MasterKey struct {
	Key string `json:"key" validate:"required"`
}

func (m MasterKey) Render() string {
	return m.Key
}

// VMArgument is a JVM system property, rendered as -Dkey=value.
type VMArgument struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (v VMArgument) Render() string {
	return "-D" + v.Key + "=" + v.Value
}

// VariableType is the type of a workflow variable.
type VariableType int

const (
	TypeString VariableType = iota
	TypeInteger
	TypeDouble
)

// String returns the JSON name of the type.
func (t VariableType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInteger:
		return "Integer"
	case TypeDouble:
		return "Double"
	default:
		return fmt.Sprintf("VariableType(%d)", int(t))
	}
}

// Tag returns the type name expected by the launcher.
func (t VariableType) Tag() string {
	switch t {
	case TypeInteger:
		return "int"
	case TypeDouble:
		return "double"
	default:
		return "String"
	}
}

func (t VariableType) MarshalText() ([]byte, error) {
	switch t {
	case TypeString, TypeInteger, TypeDouble:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariableType, int(t))
	}
}

func (t *VariableType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "string":
		*t = TypeString
	case "integer", "int":
		*t = TypeInteger
	case "double":
		*t = TypeDouble
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVariableType, string(b))
	}
	return nil
}

// WorkflowVariable overrides a workflow variable, rendered as name,value,type.
type WorkflowVariable struct {
	Name  string       `json:"name" validate:"required"`
	Value string       `json:"value" validate:"required"`
	Type  VariableType `json:"type"`
}

func (w WorkflowVariable) Render() string {
	return w.Name + "," + w.Value + "," + w.Type.Tag()
}
