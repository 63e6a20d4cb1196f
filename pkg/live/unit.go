// Package live holds the hot slots a host program calls through, so that the
// functions and methods registered there can be replaced while it runs.
//
// A host registers package-level functions on a Module and methods (as method
// expressions) on a Class, then calls them through Module.Call, Class.Call or
// the typed accessors Func and Method. Code that calls a Go function directly
// is compiled against it and never observes a replacement.
package live

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Kind tells which slot table a unit lives in.
type Kind int

const (
	// KindFunc is a package-level function bound to a Module slot.
	KindFunc Kind = iota
	// KindMethod is a method bound to a Class slot.
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Unit is one callable that can occupy a slot. Units are compared by pointer:
// the unit returned by Def is the durable original, replacements are new
// units created by NewReplacement.
type Unit struct {
	kind   Kind
	module *Module
	class  *Class
	name   string
	fn     reflect.Value
	hash   string
}

// NewReplacement builds the unit that will stand in for original. fn must be
// a function whose type is identical or convertible to the original's type;
// hash identifies the source text it was compiled from.
func NewReplacement(original *Unit, fn reflect.Value, hash string) (*Unit, error) {
	if original == nil {
		return nil, fmt.Errorf("replacement needs an original unit")
	}

	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("replacement for %s is not a function", original.Target())
	}

	if hash == "" {
		return nil, fmt.Errorf("replacement for %s has no source hash", original.Target())
	}

	want := original.fn.Type()
	if fn.Type() != want {
		if !fn.Type().ConvertibleTo(want) {
			return nil, fmt.Errorf("replacement for %s has type %s, want %s", original.Target(), fn.Type(), want)
		}

		fn = fn.Convert(want)
	}

	return &Unit{
		kind:   original.kind,
		module: original.module,
		class:  original.class,
		name:   original.name,
		fn:     fn,
		hash:   hash,
	}, nil
}

// Name returns the attribute name of the unit inside its module or class.
func (u *Unit) Name() string { return u.name }

// Kind reports whether the unit is a function or a method.
func (u *Unit) Kind() Kind { return u.kind }

// Module returns the module defining the unit (for methods, the class's module).
func (u *Unit) Module() *Module { return u.module }

// Class returns the owning class of a method, nil for functions.
func (u *Unit) Class() *Class { return u.class }

// Value returns the callable.
func (u *Unit) Value() reflect.Value { return u.fn }

// Type returns the callable's function type.
func (u *Unit) Type() reflect.Type { return u.fn.Type() }

// Hash returns the source hash of a replacement, empty for originals.
func (u *Unit) Hash() string { return u.hash }

// IsReplacement reports whether the unit was compiled from edited source.
func (u *Unit) IsReplacement() bool { return u.hash != "" }

// Target returns the dotted address of the unit's slot, e.g. "geometry.Rect.Area".
func (u *Unit) Target() string {
	parts := []string{u.module.Name()}
	if u.class != nil {
		parts = append(parts, u.class.Name())
	}

	return strings.Join(append(parts, u.name), ".")
}

// Position returns the file and line of the unit's Go definition as recorded
// in the binary. Replacements have no position.
func (u *Unit) Position() (string, int, bool) {
	if u.hash != "" {
		return "", 0, false
	}

	f := runtime.FuncForPC(u.fn.Pointer())
	if f == nil {
		return "", 0, false
	}

	file, line := f.FileLine(f.Entry())

	return file, line, file != ""
}

// FuncName returns the runtime symbol name of the callable, e.g.
// "example.com/geometry.(*Rect).Scale".
func (u *Unit) FuncName() string {
	f := runtime.FuncForPC(u.fn.Pointer())
	if f == nil {
		return ""
	}

	return f.Name()
}

// Call invokes the unit with args converted to its parameter types. A panic
// inside the unit is returned as an error.
func (u *Unit) Call(args ...any) (out []any, err error) {
	in, err := callArgs(u.fn.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", u.Target(), err)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("call %s: panic: %v", u.Target(), r)
		}
	}()

	results := u.fn.Call(in)

	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}

	return out, nil
}

func callArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("want at least %d arguments, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("want %d arguments, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, len(args))

	for i, arg := range args {
		var want reflect.Type
		if i < fixed {
			want = ft.In(i)
		} else {
			want = ft.In(ft.NumIn() - 1).Elem()
		}

		v, err := convertArg(arg, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}

		in[i] = v
	}

	return in, nil
}

func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(want) {
		return v, nil
	}

	if v.Type().ConvertibleTo(want) {
		return v.Convert(want), nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), want)
}
