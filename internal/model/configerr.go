package model

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	cue "cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
)

type CueErrorDetail struct {
	Path    string // arguments.-credential.0.name
	Code    string // one of the codes returned by classify
	Message string // Human text
	Pos     CueErrorPosition
	Raw     string // original message
}

func (c CueErrorDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("code", c.Code),
		slog.String("path", c.Path),
		slog.String("message", c.Message),
		slog.String("file", c.Pos.Filename),
		slog.Int("line", c.Pos.Line),
		slog.Int("column", c.Pos.Column),
	)
}

type CueErrorPosition struct {
	Filename string
	Line     int
	Column   int
}

var (
	reIncomplete  = regexp.MustCompile(`(?i)incomplete value`)
	reEmpty       = regexp.MustCompile(`(?i)invalid value "" \(out of bound !=""\)`)
	reNotAllowed  = regexp.MustCompile(`(?i)not allowed|unknown field`)
	reConflict    = regexp.MustCompile(`(?i)conflicting values|cannot unify|incompatible`)
	reExpectedGot = regexp.MustCompile(`(?i)expected .* got .*`)
	reEnum        = regexp.MustCompile(`(?i)must be one of|expected one of`)
)

// CueErrDetails flattens a LoadConfig error into one entry per position.
func CueErrDetails(err error) []CueErrorDetail {
	return humanize(err, schema)
}

func humanize(err error, root cue.Value) []CueErrorDetail {
	if err == nil {
		return nil
	}

	seen := make(map[CueErrorPosition]struct{})

	var out []CueErrorDetail
	for _, e := range cueerrors.Errors(err) {
		raw, _ := e.Msg()
		sels := normalizePath(e.Path())
		path := strings.Join(sels, ".")
		code, msg := classify(raw, sels)

		pos := position(e)
		if pos.Filename == "" {
			continue
		}
		if _, ok := seen[pos]; ok {
			continue
		}

		if code != "unknown_field" {
			if values, dflt := enumStrings(lookup(root, sels)); len(values) > 1 {
				msg += fmt.Sprintf(": possible values (%s)", strings.Join(values, ","))
				if dflt != nil {
					msg += fmt.Sprintf(" (default %s)", *dflt)
				}
			}
		}

		out = append(out, CueErrorDetail{
			Path:    path,
			Code:    code,
			Message: msg,
			Pos:     pos,
			Raw:     err.Error(),
		})
		seen[pos] = struct{}{}
	}
	return out
}

func enumStrings(v cue.Value) (values []string, def *string) {
	// Get default (if any)
	if d, ok := v.Default(); ok {
		if s, err := d.String(); err == nil {
			ss := s
			def = &ss
		}
	}
	// Detect disjunction
	if op, args := v.Expr(); op == cue.OrOp {
		seen := map[string]struct{}{}
		for _, a := range args {
			if a.Kind() != cue.StringKind {
				continue
			}
			if s, err := a.String(); err == nil {
				if _, ok := seen[s]; !ok {
					seen[s] = struct{}{}
					values = append(values, s)
				}
			}
		}
	} else if v.Kind() == cue.StringKind {
		// Single fixed value
		if s, err := v.String(); err == nil {
			values = append(values, s)
		}
	}
	return
}

func position(err cueerrors.Error) CueErrorPosition {
	for _, r := range cueerrors.Positions(err) {
		if r.Filename() == "" {
			continue
		}
		pos := CueErrorPosition{
			Filename: r.Filename(),
			Line:     r.Line(),
			Column:   r.Column(),
		}
		return pos
	}
	var zero CueErrorPosition
	return zero
}

func normalizePath(p []string) []string {
	if len(p) == 0 {
		return nil
	}
	// Remove leading definition (#Config)
	if strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return p
}

// classify maps a CUE message to missing_required, empty_required,
// unknown_field, conflicting_values, invalid_enum, type_mismatch or
// validation_error.
func classify(raw string, sels []string) (code, msg string) {
	name := last(sels)
	switch {
	case reNotAllowed.MatchString(raw):
		return "unknown_field", fmt.Sprintf("Field %s is not allowed", name)
	case reIncomplete.MatchString(raw):
		return "missing_required", fmt.Sprintf("Field %s is required", name)
	case reEmpty.MatchString(raw):
		return "empty_required", fmt.Sprintf("Field %s is required and must be non-empty", name)
	case reConflict.MatchString(raw):
		return "conflicting_values", fmt.Sprintf("Conflicting values for %s", name)
	case reEnum.MatchString(raw):
		return "invalid_enum", fmt.Sprintf("Field %s has invalid value", name)
	case reExpectedGot.MatchString(raw):
		return "type_mismatch", fmt.Sprintf("Field %s has wrong type/value", name)
	default:
		return "validation_error", raw
	}
}

// lookup resolves the selectors of an error path. Labels like -workflow.variable
// contain dots, so the path is never parsed from its joined form.
func lookup(root cue.Value, sels []string) cue.Value {
	if len(sels) == 0 {
		return root
	}
	ss := make([]cue.Selector, 0, len(sels))
	for _, s := range sels {
		if i, err := strconv.Atoi(s); err == nil {
			ss = append(ss, cue.Index(i))
			continue
		}
		ss = append(ss, cue.Str(s))
	}
	return root.LookupPath(cue.MakePath(ss...))
}

func last(sels []string) string {
	if len(sels) == 0 {
		return ""
	}
	return sels[len(sels)-1]
}
