// Package lemonerr holds golemon's error types. A grammar file is user
// input, not a program invariant, so errors in it are reported with the
// offending line and a human-readable message rather than a bare Go error
// string; internal inconsistencies the pipeline itself should never
// produce are reported separately as fatal errors so the CLI can tell the
// two apart when deciding an exit code.
package lemonerr

import (
	"errors"
	"fmt"
)

type grammarError struct {
	msg  string
	file string
	line int
	wrap error
}

func (e *grammarError) Error() string {
	return e.FullMessage()
}

// FullMessage renders the error with its source location, in the
// "file:line: message" form most editors and terminals can jump to.
func (e *grammarError) FullMessage() string {
	if e.file == "" && e.line <= 0 {
		return e.msg
	}
	if e.line <= 0 {
		return fmt.Sprintf("%s: %s", e.file, e.msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.file, e.line, e.msg)
}

func (e *grammarError) Unwrap() error {
	return e.wrap
}

// Grammar returns an error describing a problem with the grammar source
// text at the given file and line (line <= 0 if no specific line applies).
func Grammar(file string, line int, msg string) error {
	return &grammarError{msg: msg, file: file, line: line}
}

// Grammarf is Grammar with fmt.Sprintf-style formatting of msg.
func Grammarf(file string, line int, format string, a ...interface{}) error {
	return Grammar(file, line, fmt.Sprintf(format, a...))
}

// WrapGrammar wraps an existing error with source location context,
// preserving it for errors.Is/As via Unwrap.
func WrapGrammar(file string, line int, wrapped error, msg string) error {
	return &grammarError{msg: msg, file: file, line: line, wrap: wrapped}
}

// FullMessage returns err's location-qualified message if it is (or wraps)
// a grammar error, or err.Error() otherwise.
func FullMessage(err error) string {
	var ge *grammarError
	if errors.As(err, &ge) {
		return ge.FullMessage()
	}
	return err.Error()
}

type fatalError struct {
	msg  string
	wrap error
}

func (e *fatalError) Error() string {
	return "internal error: " + e.msg
}

func (e *fatalError) Unwrap() error {
	return e.wrap
}

// Fatal wraps an internal invariant violation (a bug in golemon itself, not
// a problem with the user's grammar) as an error distinguishable by the CLI
// from a GrammarError, so it can be reported with a different exit code and
// without implying the user's input is at fault.
func Fatal(msg string) error {
	return &fatalError{msg: msg}
}

// Fatalf is Fatal with fmt.Sprintf-style formatting.
func Fatalf(format string, a ...interface{}) error {
	return Fatal(fmt.Sprintf(format, a...))
}

// WrapFatal wraps an existing error as an internal invariant violation.
func WrapFatal(wrapped error, msg string) error {
	return &fatalError{msg: msg, wrap: wrapped}
}

// IsFatal reports whether err is (or wraps) an internal invariant
// violation as opposed to a grammar-source problem.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
