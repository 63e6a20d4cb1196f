package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is; the typed errors below match the first three.
var (
	ErrCompile           = errors.New("compile error")
	ErrMissingDefinition = errors.New("missing definition")
	ErrUnknownUnit       = errors.New("unknown unit")

	// ErrEditAborted means the editor failed or produced no text; nothing was installed.
	ErrEditAborted = errors.New("edit aborted")
	// ErrNoChanges means the editor returned the text it was given.
	ErrNoChanges = errors.New("no changes")
	// ErrUnknownTarget means a dotted target does not name a slot.
	ErrUnknownTarget = errors.New("unknown target")
)

// CompileError reports edited text that does not parse, type-check or
// evaluate. Line and Column are relative to the edited text; zero when the
// failure has no position.
type CompileError struct {
	File   string
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	}

	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Is matches ErrCompile.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }

func (e *CompileError) Unwrap() error { return e.Err }

// MissingDefinitionError reports edited text that compiles but does not
// define the function being replaced.
type MissingDefinitionError struct {
	Name string
	File string
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("there is no function %s in %s", e.Name, e.File)
}

// Is matches ErrMissingDefinition.
func (e *MissingDefinitionError) Is(target error) bool { return target == ErrMissingDefinition }

// UnknownUnitError reports a revert of a unit the registry does not track.
type UnknownUnitError struct {
	Target string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("%s has no active edit", e.Target)
}

// Is matches ErrUnknownUnit.
func (e *UnknownUnitError) Is(target error) bool { return target == ErrUnknownUnit }
