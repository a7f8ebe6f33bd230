//go:build windows

package service

import (
	"os/exec"
	"syscall"
)

// setCommandLine hands the rendered line to the launcher verbatim.
func setCommandLine(cmd *exec.Cmd, line string) {
	cmdLine := syscall.EscapeArg(cmd.Path)
	if line != "" {
		cmdLine += " " + line
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine:    cmdLine,
		HideWindow: true,
	}
}
