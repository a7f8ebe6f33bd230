package platform_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/knimenet/knimerun/internal/platform"
	"github.com/stretchr/testify/require"
)

func TestExecutable(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		goos string
		os   platform.OS
		then string
	}{
		{"darwin", platform.Mac, filepath.Join("knime.app", "Contents", "MacOS", "knime")},
		{"windows", platform.Windows, "knime.exe"},
		{"linux", platform.X11, "knime"},
		{"freebsd", platform.X11, "knime"},
	}
	for _, tc := range testCases {
		t.Run(tc.goos, func(t *testing.T) {
			t.Parallel()
			o := platform.FromGOOS(tc.goos)
			require.Equal(t, tc.os, o)
			exe, err := platform.Executable(o)
			require.NoError(t, err)
			require.Equal(t, tc.then, exe)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		t.Parallel()
		o := platform.FromGOOS("js")
		require.Equal(t, platform.Other, o)
		_, err := platform.Executable(o)
		require.ErrorIs(t, err, platform.ErrUnsupported)
	})
}

func TestDetect(t *testing.T) {
	t.Parallel()
	require.Equal(t, platform.FromGOOS(runtime.GOOS), platform.Detect())
	require.NotEmpty(t, platform.DefaultWorkDir())
}
