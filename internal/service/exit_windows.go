//go:build windows

package service

import (
	"os"
	"syscall"
)

// windows reports termination through the exit code only
func signaled(*os.ProcessState) (syscall.Signal, bool) {
	return 0, false
}
