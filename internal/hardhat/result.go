package hardhat

import (
	"fmt"
	"strings"
)

// Stream identifies which pipe a streamed chunk came from.
type Stream string

const (
	StreamOut Stream = "out"
	StreamErr Stream = "err"
)

// exitNotStarted is reported when the launcher could not be executed at all.
const exitNotStarted = 127

// Result is the outcome of one subprocess invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Successful reports whether the process exited with status 0.
func (r Result) Successful() bool {
	return r.ExitCode == 0
}

// ProcessFailedError is returned by the throwing Run variants on a non-zero exit.
type ProcessFailedError struct {
	Argv   []string
	Result Result
}

func (e *ProcessFailedError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Result.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", strings.Join(e.Argv, " "), e.Result.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", strings.Join(e.Argv, " "), e.Result.ExitCode, msg)
}
