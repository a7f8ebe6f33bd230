// Package cmdline builds the command line of the KNIME batch launcher.
//
// Options holds the typed launcher options. Each option is described by a
// Field in a static table; Render walks that table in declaration order and
// produces one space separated line. Options created by Raw wrap a literal
// line instead and render it unchanged.
//
// The JSON form of Options uses the command line keys as field names:
//
//	{"-nosave": true, "-workflowDir": "/wf", "-workflow.variable": [{"name": "n", "value": "1", "type": "Integer"}]}
//
// An empty string value means the option is unset. It is never rendered and
// encodes as an absent key, so {"-workflowDir": ""} and {} decode to the same
// Options.
package cmdline

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyKey            = errors.New("empty field key")
	ErrUnknownVariableType = errors.New("unknown variable type")
	ErrInvalidOptions      = errors.New("invalid options")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options are the launcher options of one run. Zero value is a valid
// structured set with every option unset; use NewOptions for the launcher
// defaults.
type Options struct {
	raw  bool
	line string

	NoSave            bool               `json:"-nosave"`
	Reset             bool               `json:"-reset"`
	FailOnLoadError   bool               `json:"-failonloaderror"`
	UpdateLinks       bool               `json:"-updateLinks"`
	Credentials       []Credential       `json:"-credential,omitempty" validate:"dive"`
	MasterKey         *MasterKey         `json:"-masterkey,omitempty"`
	Preferences       string             `json:"-preferences,omitempty"`
	WorkflowFile      string             `json:"-workflowFile,omitempty"`
	WorkflowDir       string             `json:"-workflowDir,omitempty"`
	DestFile          string             `json:"-destFile,omitempty"`
	DestDir           string             `json:"-destDir,omitempty"`
	WorkflowVariables []WorkflowVariable `json:"-workflow.variable,omitempty" validate:"dive"`

	Application          string       `json:"-application,omitempty"`
	Arch                 string       `json:"-arch,omitempty"`
	Clean                bool         `json:"-clean"`
	Data                 string       `json:"-data,omitempty"`
	LauncherLibrary      string       `json:"--launcher.library,omitempty"`
	LauncherIni          string       `json:"--launcher.ini,omitempty"`
	SuppressErrors       bool         `json:"--launcher.suppressErrors"`
	LauncherAppendVMArgs bool         `json:"--launcher.appendVmargs"`
	LauncherTimeout      *int         `json:"--launcher.timeout,omitempty"`
	NoSplash             bool         `json:"-nosplash"`
	NoExit               bool         `json:"-noexit"`
	ConsoleLog           bool         `json:"-consoleLog"`
	VMArguments          []VMArgument `json:"-vmargs,omitempty" validate:"dive"`
}

// NewOptions returns structured options with the defaults needed for a
// headless batch run.
func NewOptions() *Options {
	return &Options{
		NoSave:         true,
		Reset:          true,
		SuppressErrors: true,
		NoSplash:       true,
		Application:    DefaultApplication,
	}
}

// Raw wraps an already built command line. Field values of the returned
// Options are ignored.
func Raw(line string) *Options {
	return &Options{raw: true, line: line}
}

// IsRaw reports whether o wraps a literal command line.
func (o *Options) IsRaw() bool {
	return o.raw
}

// Validate checks the required fields of the structured values.
func (o *Options) Validate() error {
	if o.raw {
		return nil
	}
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s is %s", ErrInvalidOptions, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
