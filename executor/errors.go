package executor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a failed call. Its numeric value doubles as the exit code
// reported in the result envelope.
type Kind int32

const (
	KindEnvironmentInit Kind = iota + 1
	KindImportTable
	KindInstantiation
	KindMissingMemoryExport
	KindMissingEntryFunction
	KindExecutionTimeout
	KindUnitJoin
	KindStreamRead
	KindGuestTrap
	KindUnitLimit
)

var kindMessages = map[Kind]string{
	KindEnvironmentInit:      "Error: Couldn't initialize sandbox environment",
	KindImportTable:          "Error: Couldn't build host imports",
	KindInstantiation:        "Error: Couldn't instantiate module",
	KindMissingMemoryExport:  "Error: Module does not export linear memory",
	KindMissingEntryFunction: "Error: Module does not export entry function",
	KindExecutionTimeout:     "Error: Execution timed out",
	KindUnitJoin:             "Error: Execution unit terminated abnormally",
	KindStreamRead:           "Error: Couldn't read output stream",
	KindGuestTrap:            "Error: Guest trapped",
	KindUnitLimit:            "Error: Too many live execution units",
}

func (k Kind) String() string {
	switch k {
	case KindEnvironmentInit:
		return "environment_init"
	case KindImportTable:
		return "import_table"
	case KindInstantiation:
		return "instantiation"
	case KindMissingMemoryExport:
		return "missing_memory_export"
	case KindMissingEntryFunction:
		return "missing_entry_function"
	case KindExecutionTimeout:
		return "execution_timeout"
	case KindUnitJoin:
		return "unit_join"
	case KindStreamRead:
		return "stream_read"
	case KindGuestTrap:
		return "guest_trap"
	case KindUnitLimit:
		return "unit_limit"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Error is the typed failure of a call. Detail carries diagnostics such as
// the instantiation error text or the missing entry name.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

// Sentinels for errors.Is. Two errors match when their kinds match.
var (
	ErrEnvironmentInit      = &Error{Kind: KindEnvironmentInit}
	ErrImportTable          = &Error{Kind: KindImportTable}
	ErrInstantiation        = &Error{Kind: KindInstantiation}
	ErrMissingMemoryExport  = &Error{Kind: KindMissingMemoryExport}
	ErrMissingEntryFunction = &Error{Kind: KindMissingEntryFunction}
	ErrExecutionTimeout     = &Error{Kind: KindExecutionTimeout}
	ErrUnitJoin             = &Error{Kind: KindUnitJoin}
	ErrStreamRead           = &Error{Kind: KindStreamRead}
	ErrGuestTrap            = &Error{Kind: KindGuestTrap}
	ErrUnitLimit            = &Error{Kind: KindUnitLimit}
)

func newError(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// ExitInfo maps the error to the envelope's exit info.
func (e *Error) ExitInfo() ExitInfo {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = "Error: " + e.Kind.String()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += " (caused by: " + e.Cause.Error() + ")"
	}
	return ExitInfo{ExitCode: int32(e.Kind), ExitMessage: msg}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
