package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/knimenet/knimerun/internal/cmdline"

	_ "embed"
)

var ErrInvalidTimeout = errors.New("invalid timeout")

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

type Config struct {
	Version   int              `json:"version"` // fixed 0 for now
	Knime     Knime            `json:"knime"`
	Log       Log              `json:"log"`
	Arguments *cmdline.Options `json:"arguments,omitempty"` // nil => launcher defaults
}

// Knime locates the launcher and controls the supervision of a run.
type Knime struct {
	Dir         string `json:"dir,omitempty"`      // empty => knime from PATH
	WorkDir     string `json:"work_dir,omitempty"` // empty => current directory
	Timeout     string `json:"timeout,omitempty"`  // Go duration, empty => no limit
	KillOnError bool   `json:"kill_on_error"`
}

type Log struct {
	Verbose bool `json:"verbose"`
}

// DefaultConfig is used when no configuration file exists.
func DefaultConfig() Config {
	return Config{
		Version:   0,
		Knime:     Knime{KillOnError: true},
		Arguments: cmdline.NewOptions(),
	}
}

// Timeout returns the parsed knime.timeout, zero when unset.
func (c Config) Timeout() (time.Duration, error) {
	if c.Knime.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Knime.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidTimeout, c.Knime.Timeout)
	}
	return d, nil
}

// Options returns the launcher arguments, the launcher defaults when the
// configuration has none.
func (c Config) Options() *cmdline.Options {
	if c.Arguments == nil {
		return cmdline.NewOptions()
	}
	return c.Arguments
}

// MarshalYAML keeps the key order of the JSON encoding, so the arguments
// are listed in command line order.
func (c Config) MarshalYAML() (any, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var node yamlv3.Node
	if err := yamlv3.Unmarshal(b, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("encoding configuration: empty document")
	}
	root := node.Content[0]
	blockStyle(root)
	return root, nil
}

// blockStyle drops the flow and quoting styles the JSON input implies.
func blockStyle(n *yamlv3.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	for path, dst := range map[string]any{
		"version": &out.Version,
		"knime":   &out.Knime,
		"log":     &out.Log,
	} {
		if err := unified.LookupPath(cue.ParsePath(path)).Decode(dst); err != nil {
			return Config{}, err
		}
	}

	// arguments go through the option codec, which knows both forms
	if args := unified.LookupPath(cue.ParsePath("arguments")); args.Exists() {
		b, err := args.MarshalJSON()
		if err != nil {
			return Config{}, err
		}
		out.Arguments, err = cmdline.FromJSON(b)
		if err != nil {
			return Config{}, fmt.Errorf("arguments: %w", err)
		}
	}

	if _, err := out.Timeout(); err != nil {
		return Config{}, err
	}
	return out, nil
}
