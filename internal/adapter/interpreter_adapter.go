package adapter

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Symbols maps "importpath/pkgname" to the exported symbols of a package
// that only exists inside the interpreter.
type Symbols map[string]map[string]reflect.Value

// Interpreter evaluates a complete Go program and returns one of its
// package-level symbols.
type Interpreter interface {
	Eval(ctx context.Context, program string, symbols Symbols, entry string) (reflect.Value, error)
}

// YaegiInterpreter runs programs in a fresh yaegi interpreter per call, with
// the standard library and the supplied symbols available for import.
// Evaluated code runs with the full trust of the host process.
type YaegiInterpreter struct {
	stdout io.Writer
	stderr io.Writer
}

// NewYaegiInterpreter creates an interpreter adapter writing the evaluated
// code's output to stdout and stderr (the process streams when nil).
func NewYaegiInterpreter(stdout, stderr io.Writer) *YaegiInterpreter {
	return &YaegiInterpreter{stdout: stdout, stderr: stderr}
}

// Eval evaluates program and returns the value of entry, e.g. "main.Area".
func (y *YaegiInterpreter) Eval(ctx context.Context, program string, symbols Symbols, entry string) (reflect.Value, error) {
	i := interp.New(interp.Options{
		Stdout:       y.stdout,
		Stderr:       y.stderr,
		Unrestricted: true,
	})

	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if len(symbols) > 0 {
		if err := i.Use(interp.Exports(symbols)); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to load scope symbols: %w", err)
		}
	}

	if _, err := i.EvalWithContext(ctx, program); err != nil {
		return reflect.Value{}, fmt.Errorf("code evaluation failed: %w", err)
	}

	v, err := i.EvalWithContext(ctx, entry)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%s not found: %w", entry, err)
	}

	return v, nil
}
