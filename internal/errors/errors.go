// Package errors defines the error taxonomy shared by the planner, the
// executor and the CLI.
//
// Every error carries a machine-matchable Kind, a kind-specific message, an
// optional cause, an ordered trail of (call-site, message) annotations added
// with Context as the error travels upward, and the stack captured when the
// error was created. Error() returns the short message; formatting with %+v
// renders the trail and the stack as well.
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Kind classifies an error for matching and for the one-word label shown in
// reports.
type Kind int

const (
	// KindInternal is an unexpected or aggregated failure.
	KindInternal Kind = iota
	// KindConfigFileNotFound means no configuration file exists in the directory.
	KindConfigFileNotFound
	// KindConfigFileParseFailed means the configuration file could not be decoded or validated.
	KindConfigFileParseFailed
	// KindInvalidFilePermission means a mode string is not an octal permission.
	KindInvalidFilePermission
	// KindEnvVarUndefined means a referenced environment variable is unset.
	KindEnvVarUndefined
	// KindCommandNotFound means a binary could not be found on $PATH.
	KindCommandNotFound
	// KindInstallerParseFailure means a package manager's output could not be parsed.
	KindInstallerParseFailure
	// KindIo is a general unhandled I/O failure.
	KindIo
)

var kindNames = map[Kind]string{
	KindInternal:              "Internal",
	KindConfigFileNotFound:    "ConfigFileNotFound",
	KindConfigFileParseFailed: "ConfigFileParseFailed",
	KindInvalidFilePermission: "InvalidFilePermission",
	KindEnvVarUndefined:       "EnvVarUndefined",
	KindCommandNotFound:       "CommandNotFound",
	KindInstallerParseFailure: "InstallerParseFailure",
	KindIo:                    "Io",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Frame is one entry of an error's context trail.
type Frame struct {
	File    string
	Line    int
	Message string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// Error is the structured error value used across localenv.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	trail []Frame
	stack []uintptr
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if stderrors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Trail returns the context annotations in the order they were added.
func (e *Error) Trail() []Frame {
	out := make([]Frame, len(e.trail))
	copy(out, e.trail)
	return out
}

// Format implements fmt.Formatter. %+v renders the context trail and the
// captured stack after the message.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprint(s, e.Error())
			e.writeTrail(s)
			e.writeStack(s)
			return
		}
		_, _ = fmt.Fprint(s, e.Error())
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e *Error) writeTrail(s fmt.State) {
	if len(e.trail) == 0 {
		return
	}
	_, _ = fmt.Fprint(s, "\n\nContext:")
	for _, f := range e.trail {
		_, _ = fmt.Fprintf(s, "\n    %s\n        %s", f, f.Message)
	}
}

// modulePath limits the rendered stack to frames of this module.
const modulePath = "github.com/atomikpanda/localenv"

func (e *Error) writeStack(s fmt.State) {
	if len(e.stack) == 0 {
		return
	}
	_, _ = fmt.Fprint(s, "\n\nStacktrace:")
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, modulePath) {
			_, _ = fmt.Fprintf(s, "\n    %s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
}

func newError(kind Kind, msg string, cause error) *Error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return &Error{
		Kind:    kind,
		Message: msg,
		Err:     cause,
		stack:   pcs[:n],
	}
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return newError(kind, message, nil)
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return newError(kind, fmt.Sprintf(format, args...), nil)
}

// Wrap wraps err in an Error of the given kind. It returns nil when err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return newError(kind, message, err)
}

// Wrapf wraps err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return newError(kind, fmt.Sprintf(format, args...), err)
}

// Internalf creates an internal error.
func Internalf(format string, args ...interface{}) *Error {
	return newError(KindInternal, fmt.Sprintf(format, args...), nil)
}

// ConfigFileNotFound reports that no configuration file exists at path.
func ConfigFileNotFound(path string) *Error {
	return newError(KindConfigFileNotFound, "config file not found: "+path, nil)
}

// ConfigFileParseFailed reports that the configuration at path could not be decoded.
func ConfigFileParseFailed(path string, err error) *Error {
	return newError(KindConfigFileParseFailed, "config file parse error: "+path, err)
}

// InvalidFilePermission reports a mode string that is not an octal permission.
func InvalidFilePermission(raw string) *Error {
	return newError(KindInvalidFilePermission,
		fmt.Sprintf("invalid file permission mode: %q (expected an octal mode such as 644 or 0700)", raw), nil)
}

// EnvVarUndefined reports an unset environment variable.
func EnvVarUndefined(name string) *Error {
	return newError(KindEnvVarUndefined, fmt.Sprintf("environment variable %s is not defined", name), nil)
}

// CommandNotFound reports a binary missing from $PATH.
func CommandNotFound(name string, err error) *Error {
	return newError(KindCommandNotFound, fmt.Sprintf("command %s not found", name), err)
}

// Io wraps a general I/O failure. It returns nil when err is nil.
func Io(err error) *Error {
	if err == nil {
		return nil
	}
	return newError(KindIo, "I/O error", err)
}

// From converts any error into an *Error. An *Error is returned as is. An
// error that wraps an *Error is wrapped again with the inner kind, so the
// outer error and its message are kept. Filesystem and process errors become
// KindIo; anything else becomes KindInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	var inner *Error
	if stderrors.As(err, &inner) {
		return newError(inner.Kind, "", err)
	}
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var exitErr *exec.ExitError
	switch {
	case stderrors.As(err, &pathErr), stderrors.As(err, &linkErr), stderrors.As(err, &exitErr):
		return newError(KindIo, "I/O error", err)
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrExist), stderrors.Is(err, fs.ErrPermission):
		return newError(KindIo, "I/O error", err)
	}
	return newError(KindInternal, "error", err)
}

// Context appends a (call-site, message) frame to err's trail and returns it.
// It returns nil when err is nil.
func Context(err error, message string) error {
	if err == nil {
		return nil
	}
	e := From(err)
	e.addFrame(message)
	return e
}

// Contextf is Context with a formatted message.
func Contextf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	e := From(err)
	e.addFrame(fmt.Sprintf(format, args...))
	return e
}

func (e *Error) addFrame(message string) {
	frame := Frame{Message: message}
	// skip addFrame and Context/Contextf
	if _, file, line, ok := runtime.Caller(2); ok {
		frame.File = file
		frame.Line = line
	}
	e.trail = append(e.trail, frame)
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
