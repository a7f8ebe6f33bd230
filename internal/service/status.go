package service

// KilledExitCode is reported after the supervisor killed the child.
const KilledExitCode = -1

// Status describes how one run ended. Callers learn about failures from
// LastErrorMessage, KilledProcess and ExitCode; Run never returns an error.
type Status struct {
	ExitCode         int    `json:"exit_code"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
	KilledProcess    bool   `json:"killed_process"`
}

// Failed reports whether the run did not complete normally.
func (s Status) Failed() bool {
	return s.LastErrorMessage != ""
}
