package live

import (
	"fmt"
	"path"
	"reflect"
	"sort"
	"sync"
)

// Module is the slot table for the package-level functions of one Go package,
// together with the globals edited code may refer to.
type Module struct {
	path string
	name string

	mu      sync.RWMutex
	globals map[string]reflect.Value
	slots   map[string]*Unit
	classes map[string]*Class
}

// NewModule creates an empty module for the given import path. The module's
// name is the last path element.
func NewModule(importPath string) *Module {
	return &Module{
		path:    importPath,
		name:    path.Base(importPath),
		globals: make(map[string]reflect.Value),
		slots:   make(map[string]*Unit),
		classes: make(map[string]*Class),
	}
}

// Path returns the module's import path.
func (m *Module) Path() string { return m.path }

// Name returns the module's package name.
func (m *Module) Name() string { return m.name }

// Def registers fn as the original unit for slot name and exposes the slot as
// a global, so edited code calling name always reaches the attached unit.
// It panics if fn is not a function or the name is taken.
func (m *Module) Def(name string, fn any) *Unit {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("live: %s.%s is not a function", m.name, name))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.globals[name]; ok {
		panic(fmt.Sprintf("live: %s.%s already defined", m.name, name))
	}

	u := &Unit{kind: KindFunc, module: m, name: name, fn: v}
	m.slots[name] = u
	m.globals[name] = reflect.MakeFunc(v.Type(), func(args []reflect.Value) []reflect.Value {
		current, _ := m.Unit(name)
		return current.fn.Call(args)
	})

	return u
}

// Var exposes the variable ptr points to as a global. Edited code reads and
// writes the host's variable, not a copy.
func (m *Module) Var(name string, ptr any) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		panic(fmt.Sprintf("live: %s.%s needs a non-nil pointer", m.name, name))
	}

	m.setGlobal(name, v.Elem())
}

// Value exposes a constant or helper value as a global.
func (m *Module) Value(name string, value any) {
	m.setGlobal(name, reflect.ValueOf(value))
}

// Type exposes a named type as a global; nilPtr is a typed nil pointer such
// as (*Rect)(nil).
func (m *Module) Type(name string, nilPtr any) {
	v := reflect.ValueOf(nilPtr)
	if v.Kind() != reflect.Pointer || !v.IsNil() {
		panic(fmt.Sprintf("live: %s.%s needs a typed nil pointer", m.name, name))
	}

	m.setGlobal(name, v)
}

// Class registers the type behind nilPtr as a global and returns the slot
// table for its methods.
func (m *Module) Class(name string, nilPtr any) *Class {
	m.Type(name, nilPtr)

	c := &Class{
		module: m,
		name:   name,
		typ:    reflect.TypeOf(nilPtr).Elem(),
		slots:  make(map[string]*Unit),
	}

	m.mu.Lock()
	m.classes[name] = c
	m.mu.Unlock()

	return c
}

func (m *Module) setGlobal(name string, v reflect.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.globals[name]; ok {
		panic(fmt.Sprintf("live: %s.%s already defined", m.name, name))
	}

	m.globals[name] = v
}

// Globals returns a copy of the symbols edited code can refer to.
func (m *Module) Globals() map[string]reflect.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]reflect.Value, len(m.globals))
	for k, v := range m.globals {
		out[k] = v
	}

	return out
}

// Lookup returns the class registered under name.
func (m *Module) Lookup(name string) (*Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.classes[name]

	return c, ok
}

// Classes returns the module's classes sorted by name.
func (m *Module) Classes() []*Class {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })

	return out
}

// Unit returns the unit currently attached to slot name.
func (m *Module) Unit(name string) (*Unit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.slots[name]

	return u, ok
}

// Units returns the units currently attached to the module's function slots,
// sorted by name.
func (m *Module) Units() []*Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedUnits(m.slots)
}

// Set attaches u to slot name, replacing whatever is bound there.
func (m *Module) Set(name string, u *Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.slots[name]
	if !ok {
		return fmt.Errorf("%s has no function %s", m.name, name)
	}

	if u.fn.Type() != current.fn.Type() {
		return fmt.Errorf("%s.%s has type %s, cannot attach %s", m.name, name, current.fn.Type(), u.fn.Type())
	}

	m.slots[name] = u

	return nil
}

// Call invokes the unit attached to slot name.
func (m *Module) Call(name string, args ...any) ([]any, error) {
	u, ok := m.Unit(name)
	if !ok {
		return nil, fmt.Errorf("%s has no function %s", m.name, name)
	}

	return u.Call(args...)
}

// Func returns the callable attached to slot name as F.
func Func[F any](m *Module, name string) (F, error) {
	var zero F

	u, ok := m.Unit(name)
	if !ok {
		return zero, fmt.Errorf("%s has no function %s", m.name, name)
	}

	fn, ok := u.fn.Interface().(F)
	if !ok {
		return zero, fmt.Errorf("%s.%s has type %s", m.name, name, u.fn.Type())
	}

	return fn, nil
}

func sortedUnits(slots map[string]*Unit) []*Unit {
	out := make([]*Unit, 0, len(slots))
	for _, u := range slots {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })

	return out
}
