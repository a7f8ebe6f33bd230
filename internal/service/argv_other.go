//go:build !windows

package service

import (
	"os/exec"
	"strings"
)

// setCommandLine splits the rendered line on white space, the launcher does
// not expect any quoting.
func setCommandLine(cmd *exec.Cmd, line string) {
	cmd.Args = append(cmd.Args[:1], strings.Fields(line)...)
}
