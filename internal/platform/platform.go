// Package platform knows where the KNIME executable lives on each host OS.
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

var ErrUnsupported = errors.New("could not determine operating system type")

// OS is the host family relevant for locating the launcher.
type OS int

const (
	Other OS = iota
	Mac
	Windows
	X11
)

func (o OS) String() string {
	switch o {
	case Mac:
		return "mac"
	case Windows:
		return "windows"
	case X11:
		return "x11"
	default:
		return "other"
	}
}

// Detect returns the OS family of the running host.
func Detect() OS {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to an OS family.
func FromGOOS(goos string) OS {
	switch goos {
	case "darwin":
		return Mac
	case "windows":
		return Windows
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return X11
	default:
		return Other
	}
}

// Executable returns the launcher path relative to the KNIME installation
// directory.
func Executable(o OS) (string, error) {
	switch o {
	case Mac:
		return filepath.Join("knime.app", "Contents", "MacOS", "knime"), nil
	case Windows:
		return "knime.exe", nil
	case X11:
		return "knime", nil
	default:
		return "", ErrUnsupported
	}
}

// DefaultWorkDir is the working directory used when a run does not set one.
func DefaultWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return os.TempDir()
}
