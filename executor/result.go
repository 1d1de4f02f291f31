package executor

import (
	"errors"
	"strings"
	"time"
)

// OkMessage is the exit message of every run that exits with code 0.
const OkMessage = "Ok"

// ExitInfo summarizes how a run terminated.
type ExitInfo struct {
	ExitCode    int32  `json:"exit_code"`
	ExitMessage string `json:"exit_message"`
}

// Result is the envelope returned for every call.
type Result struct {
	Stdout   []string `json:"stdout"`
	Stderr   []string `json:"stderr"`
	ExitInfo ExitInfo `json:"exit_info"`
	// Result is nil when the call failed with a typed error, and non-nil
	// (possibly empty) otherwise.
	Result []byte `json:"result"`

	Duration time.Duration `json:"-"`
	Err      error         `json:"-"`
}

// outcome is what an execution unit produces.
type outcome struct {
	result   []byte
	exitCode int32
	err      error
}

// assemble maps an outcome and the captured streams to the envelope.
func assemble(o outcome, stdout, stderr []string) Result {
	if stdout == nil {
		stdout = []string{}
	}
	if stderr == nil {
		stderr = []string{}
	}

	if o.err != nil {
		var e *Error
		if !errors.As(o.err, &e) {
			e = newError(KindUnitJoin, "", o.err)
		}
		return Result{
			Stdout:   stdout,
			Stderr:   stderr,
			ExitInfo: e.ExitInfo(),
			Err:      o.err,
		}
	}

	result := o.result
	if result == nil {
		result = []byte{}
	}

	info := ExitInfo{ExitCode: o.exitCode, ExitMessage: OkMessage}
	if o.exitCode != 0 {
		info.ExitMessage = strings.ToValidUTF8(string(result), "\uFFFD")
	}

	return Result{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitInfo: info,
		Result:   result,
	}
}
