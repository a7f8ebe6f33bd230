package cmdline

import (
	"fmt"
	"sort"
	"strconv"
)

// Separator joins a key to its value on the command line.
type Separator int

const (
	SepSpace Separator = iota
	SepEquals
	SepNone
)

func (s Separator) String() string {
	switch s {
	case SepSpace:
		return " "
	case SepEquals:
		return "="
	default:
		return ""
	}
}

// Repetition controls how a key is emitted for list values.
type Repetition int

const (
	// RepeatNone emits the list elements without the key.
	RepeatNone Repetition = iota
	// RepeatSingle emits the key once, followed by all elements.
	RepeatSingle
	// RepeatForEach repeats the key in front of every element.
	RepeatForEach
)

// Field describes how one option renders on the command line.
type Field struct {
	Key        string
	Flag       bool
	Separator  Separator
	Repetition Repetition
	Order      int
}

// Command line keys understood by the KNIME launcher.
const (
	KeyNoSave          = "-nosave"
	KeyReset           = "-reset"
	KeyFailOnLoadError = "-failonloaderror"
	KeyUpdateLinks     = "-updateLinks"
	KeyCredential      = "-credential"
	KeyMasterKey       = "-masterkey"
	KeyPreferences     = "-preferences"
	KeyWorkflowFile    = "-workflowFile"
	KeyWorkflowDir     = "-workflowDir"
	KeyDestFile        = "-destFile"
	KeyDestDir         = "-destDir"
	KeyWorkflowVar     = "-workflow.variable"

	KeyApplication           = "-application"
	KeyArch                  = "-arch"
	KeyClean                 = "-clean"
	KeyData                  = "-data"
	KeyLauncherLibrary       = "--launcher.library"
	KeyLauncherIni           = "--launcher.ini"
	KeyLauncherSuppressError = "--launcher.suppressErrors"
	KeyLauncherAppendVMArgs  = "--launcher.appendVmargs"
	KeyLauncherTimeout       = "--launcher.timeout"
	KeyNoSplash              = "-nosplash"
	KeyNoExit                = "-noexit"
	KeyConsoleLog            = "-consoleLog"

	KeyVMArgs = "-vmargs"
)

// DefaultApplication is the batch application started by default.
const DefaultApplication = "org.knime.product.KNIME_BATCH_APPLICATION"

// binding ties a field to the option it reads. Exactly one accessor is set.
type binding struct {
	Field
	flag   func(*Options) bool
	scalar func(*Options) (string, bool)
	list   func(*Options) []Renderer
}

func flagField(key string, order int, get func(*Options) bool) binding {
	return binding{
		Field: Field{Key: key, Flag: true, Separator: SepNone, Repetition: RepeatNone, Order: order},
		flag:  get,
	}
}

func scalarField(key string, sep Separator, order int, get func(*Options) (string, bool)) binding {
	return binding{
		Field:  Field{Key: key, Separator: sep, Repetition: RepeatNone, Order: order},
		scalar: get,
	}
}

func listField(key string, sep Separator, rep Repetition, order int, get func(*Options) []Renderer) binding {
	return binding{
		Field: Field{Key: key, Separator: sep, Repetition: rep, Order: order},
		list:  get,
	}
}

func str(s string) (string, bool) {
	return s, s != ""
}

// bindings is sorted by Order in init.
var bindings = []binding{
	flagField(KeyNoSave, 0, func(o *Options) bool { return o.NoSave }),
	flagField(KeyReset, 1, func(o *Options) bool { return o.Reset }),
	flagField(KeyFailOnLoadError, 2, func(o *Options) bool { return o.FailOnLoadError }),
	flagField(KeyUpdateLinks, 3, func(o *Options) bool { return o.UpdateLinks }),
	listField(KeyCredential, SepEquals, RepeatForEach, 4, func(o *Options) []Renderer { return renderers(o.Credentials) }),
	scalarField(KeyMasterKey, SepEquals, 5, func(o *Options) (string, bool) {
		if o.MasterKey == nil {
			return "", false
		}
		return o.MasterKey.Render(), true
	}),
	scalarField(KeyPreferences, SepEquals, 6, func(o *Options) (string, bool) { return str(o.Preferences) }),
	scalarField(KeyWorkflowFile, SepEquals, 7, func(o *Options) (string, bool) { return str(o.WorkflowFile) }),
	scalarField(KeyWorkflowDir, SepEquals, 8, func(o *Options) (string, bool) { return str(o.WorkflowDir) }),
	scalarField(KeyDestFile, SepEquals, 9, func(o *Options) (string, bool) { return str(o.DestFile) }),
	scalarField(KeyDestDir, SepEquals, 10, func(o *Options) (string, bool) { return str(o.DestDir) }),
	listField(KeyWorkflowVar, SepEquals, RepeatForEach, 11, func(o *Options) []Renderer { return renderers(o.WorkflowVariables) }),

	scalarField(KeyApplication, SepSpace, 12, func(o *Options) (string, bool) { return str(o.Application) }),
	scalarField(KeyArch, SepSpace, 13, func(o *Options) (string, bool) { return str(o.Arch) }),
	flagField(KeyClean, 14, func(o *Options) bool { return o.Clean }),
	scalarField(KeyData, SepSpace, 15, func(o *Options) (string, bool) { return str(o.Data) }),
	scalarField(KeyLauncherLibrary, SepSpace, 16, func(o *Options) (string, bool) { return str(o.LauncherLibrary) }),
	scalarField(KeyLauncherIni, SepSpace, 17, func(o *Options) (string, bool) { return str(o.LauncherIni) }),
	flagField(KeyLauncherSuppressError, 18, func(o *Options) bool { return o.SuppressErrors }),
	flagField(KeyLauncherAppendVMArgs, 19, func(o *Options) bool { return o.LauncherAppendVMArgs }),
	scalarField(KeyLauncherTimeout, SepSpace, 20, func(o *Options) (string, bool) {
		if o.LauncherTimeout == nil {
			return "", false
		}
		return strconv.Itoa(*o.LauncherTimeout), true
	}),
	flagField(KeyNoSplash, 21, func(o *Options) bool { return o.NoSplash }),
	flagField(KeyNoExit, 22, func(o *Options) bool { return o.NoExit }),
	flagField(KeyConsoleLog, 23, func(o *Options) bool { return o.ConsoleLog }),

	// the launcher passes everything after -vmargs to the JVM, so it must stay last
	listField(KeyVMArgs, SepSpace, RepeatForEach, 24, func(o *Options) []Renderer { return renderers(o.VMArguments) }),
}

func init() {
	if err := checkBindings(bindings); err != nil {
		panic(err)
	}
	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].Order < bindings[j].Order
	})
}

func checkBindings(bs []binding) error {
	orders := make(map[int]string, len(bs))
	for _, b := range bs {
		if b.Key == "" {
			return fmt.Errorf("field with order %d: %w", b.Order, ErrEmptyKey)
		}
		if other, ok := orders[b.Order]; ok {
			return fmt.Errorf("fields %s and %s share order %d", other, b.Key, b.Order)
		}
		orders[b.Order] = b.Key
	}
	return nil
}

// Fields returns the field descriptors in declaration order.
func Fields() []Field {
	ret := make([]Field, len(bindings))
	for i, b := range bindings {
		ret[i] = b.Field
	}
	return ret
}

// Lookup returns the descriptor for a command line key.
func Lookup(key string) (Field, bool) {
	for _, b := range bindings {
		if b.Key == key {
			return b.Field, true
		}
	}
	return Field{}, false
}
