package cmdline_test

import (
	"strings"
	"testing"

	"github.com/knimenet/knimerun/internal/cmdline"
	"github.com/stretchr/testify/require"
)

func fullOptions() *cmdline.Options {
	timeout := 30
	return &cmdline.Options{
		NoSave:          true,
		Reset:           true,
		FailOnLoadError: true,
		Credentials: []cmdline.Credential{
			{Name: "c1"},
			{Name: "c2", Login: "login", Password: "pass"},
		},
		MasterKey:   &cmdline.MasterKey{Key: "key1234"},
		Preferences: "prefs.epf",
		WorkflowDir: "/wf",
		DestDir:     "/out",
		WorkflowVariables: []cmdline.WorkflowVariable{
			{Name: "var1", Value: "value1", Type: cmdline.TypeDouble},
			{Name: "var2", Value: "2", Type: cmdline.TypeInteger},
		},
		Application:     "app",
		Arch:            "x86",
		Clean:           true,
		Data:            "/data",
		LauncherIni:     "knime.ini",
		SuppressErrors:  true,
		LauncherTimeout: &timeout,
		NoSplash:        true,
		ConsoleLog:      true,
		VMArguments: []cmdline.VMArgument{
			{Key: "key1", Value: "value1"},
			{Key: "key2", Value: "value2"},
		},
	}
}

const fullLine = "-nosave -reset -failonloaderror" +
	" -credential=c1 -credential=c2;login;pass" +
	" -masterkey=key1234 -preferences=prefs.epf -workflowDir=/wf -destDir=/out" +
	" -workflow.variable=var1,value1,double -workflow.variable=var2,2,int" +
	" -application app -arch x86 -clean -data /data --launcher.ini knime.ini" +
	" --launcher.suppressErrors --launcher.timeout 30 -nosplash -consoleLog" +
	" -vmargs -Dkey1=value1 -vmargs -Dkey2=value2"

func TestOptionsRender(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		var o cmdline.Options
		require.Empty(t, o.Render())
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		o := cmdline.NewOptions()
		require.Equal(t,
			"-nosave -reset -application org.knime.product.KNIME_BATCH_APPLICATION --launcher.suppressErrors -nosplash",
			o.Render(),
		)
	})

	t.Run("full", func(t *testing.T) {
		t.Parallel()
		o := fullOptions()
		require.Equal(t, fullLine, o.Render())
		require.Equal(t, fullLine, o.String())
		// same options, same line
		require.Equal(t, o.Render(), o.Render())
	})

	t.Run("tokens", func(t *testing.T) {
		t.Parallel()
		o := &cmdline.Options{Application: "app", NoSplash: true}
		require.Equal(t, []string{"-application", "app", "-nosplash"}, o.Tokens())
	})
}

func TestFlags(t *testing.T) {
	t.Parallel()
	for _, f := range cmdline.Fields() {
		if !f.Flag {
			continue
		}
		t.Run(f.Key, func(t *testing.T) {
			t.Parallel()
			o := &cmdline.Options{}
			require.Empty(t, o.Render())
			setFlag(t, o, f.Key)
			require.Equal(t, f.Key, o.Render())
		})
	}
}

func setFlag(t *testing.T, o *cmdline.Options, key string) {
	t.Helper()
	switch key {
	case cmdline.KeyNoSave:
		o.NoSave = true
	case cmdline.KeyReset:
		o.Reset = true
	case cmdline.KeyFailOnLoadError:
		o.FailOnLoadError = true
	case cmdline.KeyUpdateLinks:
		o.UpdateLinks = true
	case cmdline.KeyClean:
		o.Clean = true
	case cmdline.KeyLauncherSuppressError:
		o.SuppressErrors = true
	case cmdline.KeyLauncherAppendVMArgs:
		o.LauncherAppendVMArgs = true
	case cmdline.KeyNoSplash:
		o.NoSplash = true
	case cmdline.KeyNoExit:
		o.NoExit = true
	case cmdline.KeyConsoleLog:
		o.ConsoleLog = true
	default:
		t.Fatalf("flag %s is not handled by the test", key)
	}
}

func TestRepeatedKey(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 5} {
		o := &cmdline.Options{}
		for i := range n {
			o.Credentials = append(o.Credentials, cmdline.Credential{Name: "c" + string(rune('a'+i))})
		}
		tokens := o.Tokens()
		require.Len(t, tokens, n)
		for i, tok := range tokens {
			require.Equal(t, cmdline.KeyCredential+"="+o.Credentials[i].Render(), tok)
		}
		require.Equal(t, n, strings.Count(o.Render(), cmdline.KeyCredential))
	}
}

func TestVMArgsRepeated(t *testing.T) {
	t.Parallel()
	o := &cmdline.Options{
		VMArguments: []cmdline.VMArgument{
			{Key: "a", Value: "1"},
			{Key: "b", Value: "2"},
			{Key: "c", Value: "3"},
		},
	}
	require.Equal(t, "-vmargs -Da=1 -vmargs -Db=2 -vmargs -Dc=3", o.Render())
	require.Equal(t, []string{"-vmargs", "-Da=1", "-vmargs", "-Db=2", "-vmargs", "-Dc=3"}, o.Tokens())

	f, ok := cmdline.Lookup(cmdline.KeyVMArgs)
	require.True(t, ok)
	require.Equal(t, cmdline.RepeatForEach, f.Repetition)
	require.Equal(t, cmdline.SepSpace, f.Separator)
}

func TestVMArgsLast(t *testing.T) {
	t.Parallel()
	o := cmdline.NewOptions()
	o.VMArguments = []cmdline.VMArgument{{Key: "a", Value: "b"}}
	o.ConsoleLog = true
	require.True(t, strings.HasSuffix(o.Render(), "-consoleLog -vmargs -Da=b"))

	fields := cmdline.Fields()
	require.Equal(t, cmdline.KeyVMArgs, fields[len(fields)-1].Key)
}

func TestFieldsOrder(t *testing.T) {
	t.Parallel()
	fields := cmdline.Fields()
	require.NotEmpty(t, fields)
	for i := 1; i < len(fields); i++ {
		require.Less(t, fields[i-1].Order, fields[i].Order)
	}

	f, ok := cmdline.Lookup(cmdline.KeyWorkflowVar)
	require.True(t, ok)
	require.Equal(t, cmdline.SepEquals, f.Separator)
	require.Equal(t, cmdline.RepeatForEach, f.Repetition)
	require.False(t, f.Flag)

	_, ok = cmdline.Lookup("-nope")
	require.False(t, ok)
}

func TestRaw(t *testing.T) {
	t.Parallel()
	o := cmdline.Raw("-reset")
	require.True(t, o.IsRaw())
	require.Equal(t, "-reset", o.Render())

	// field values are ignored in raw mode
	o.NoSplash = true
	o.Credentials = []cmdline.Credential{{Name: "x"}}
	require.Equal(t, "-reset", o.Render())

	line := `  -workflowDir="C:\my dir"   -nosave `
	require.Equal(t, line, cmdline.Raw(line).Render())
	require.False(t, cmdline.NewOptions().IsRaw())
}
