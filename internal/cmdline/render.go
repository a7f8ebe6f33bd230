package cmdline

import (
	"strings"
)

// Render returns the command line for o. Raw options return the wrapped line
// unchanged. Tokens are neither quoted nor escaped.
func (o *Options) Render() string {
	if o.raw {
		return o.line
	}
	return strings.Join(o.tokens(), " ")
}

func (o *Options) String() string {
	return o.Render()
}

// Tokens returns the rendered command line split on white space, the way the
// launcher tokenizes it.
func (o *Options) Tokens() []string {
	return strings.Fields(o.Render())
}

func (o *Options) tokens() []string {
	var tokens []string
	for _, b := range bindings {
		switch {
		case b.list != nil:
			tokens = appendList(tokens, b.Field, b.list(o))
		case b.flag != nil:
			// false flags are never emitted
			if b.flag(o) {
				tokens = append(tokens, b.Key)
			}
		case b.scalar != nil:
			value, ok := b.scalar(o)
			if !ok {
				continue
			}
			tokens = append(tokens, keyValue(b.Field, value))
		}
	}
	return tokens
}

func appendList(tokens []string, f Field, items []Renderer) []string {
	if len(items) == 0 {
		return tokens
	}
	switch f.Repetition {
	case RepeatForEach:
		for _, item := range items {
			tokens = append(tokens, keyValue(f, item.Render()))
		}
	case RepeatSingle:
		if f.Flag {
			return append(tokens, f.Key)
		}
		tokens = append(tokens, f.Key)
		for _, item := range items {
			tokens = append(tokens, item.Render())
		}
	case RepeatNone:
		if f.Flag {
			return tokens
		}
		for _, item := range items {
			tokens = append(tokens, item.Render())
		}
	}
	return tokens
}

func keyValue(f Field, value string) string {
	if f.Flag || value == "" {
		return f.Key
	}
	return f.Key + f.Separator.String() + value
}
