package cmdline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item string

func (i item) Render() string { return string(i) }

func TestAppendList(t *testing.T) {
	t.Parallel()
	items := []Renderer{item("a"), item("b")}

	var testCases = []struct {
		scenario string
		given    Field
		then     []string
	}{
		{"for each", Field{Key: "-k", Separator: SepEquals, Repetition: RepeatForEach}, []string{"-k=a", "-k=b"}},
		{"for each space", Field{Key: "-k", Separator: SepSpace, Repetition: RepeatForEach}, []string{"-k a", "-k b"}},
		{"for each none", Field{Key: "-k", Separator: SepNone, Repetition: RepeatForEach}, []string{"-ka", "-kb"}},
		{"single", Field{Key: "-k", Separator: SepSpace, Repetition: RepeatSingle}, []string{"-k", "a", "b"}},
		{"none", Field{Key: "-k", Separator: SepSpace, Repetition: RepeatNone}, []string{"a", "b"}},
		{"flag for each", Field{Key: "-f", Flag: true, Repetition: RepeatForEach}, []string{"-f", "-f"}},
		{"flag single", Field{Key: "-f", Flag: true, Repetition: RepeatSingle}, []string{"-f"}},
		{"flag none", Field{Key: "-f", Flag: true, Repetition: RepeatNone}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.then, appendList(nil, tc.given, items))
			require.Equal(t, []string{"x"}, appendList([]string{"x"}, tc.given, nil))
		})
	}
}

func TestCheckBindings(t *testing.T) {
	t.Parallel()
	require.NoError(t, checkBindings(bindings))

	err := checkBindings([]binding{flagField("", 0, nil)})
	require.ErrorIs(t, err, ErrEmptyKey)

	err = checkBindings([]binding{flagField("-a", 1, nil), flagField("-b", 1, nil)})
	require.EqualError(t, err, "fields -a and -b share order 1")
}

func TestSeparator(t *testing.T) {
	t.Parallel()
	require.Equal(t, " ", SepSpace.String())
	require.Equal(t, "=", SepEquals.String())
	require.Equal(t, "", SepNone.String())
}
