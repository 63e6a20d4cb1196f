package live

import (
	"fmt"
	"reflect"
	"sync"
)

// Class is the slot table for the methods of one Go type. Methods are
// registered as method expressions, so the receiver is the first argument.
type Class struct {
	module *Module
	name   string
	typ    reflect.Type

	mu    sync.RWMutex
	slots map[string]*Unit
}

// Name returns the type name.
func (c *Class) Name() string { return c.name }

// Module returns the module the type belongs to.
func (c *Class) Module() *Module { return c.module }

// Type returns the Go type the class stands for.
func (c *Class) Type() reflect.Type { return c.typ }

// Def registers method, a method expression such as Rect.Area or
// (*Rect).Scale, as the original unit for slot name.
func (c *Class) Def(name string, method any) *Unit {
	v := reflect.ValueOf(method)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("live: %s.%s is not a function", c.name, name))
	}

	ft := v.Type()
	if ft.NumIn() == 0 || (ft.In(0) != c.typ && ft.In(0) != reflect.PointerTo(c.typ)) {
		panic(fmt.Sprintf("live: %s.%s does not take a %s receiver", c.name, name, c.typ))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.slots[name]; ok {
		panic(fmt.Sprintf("live: %s.%s already defined", c.name, name))
	}

	u := &Unit{kind: KindMethod, module: c.module, class: c, name: name, fn: v}
	c.slots[name] = u

	return u
}

// Unit returns the unit currently attached to method slot name.
func (c *Class) Unit(name string) (*Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.slots[name]

	return u, ok
}

// Units returns the units currently attached to the class, sorted by name.
func (c *Class) Units() []*Unit {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedUnits(c.slots)
}

// Set attaches u to method slot name, replacing whatever is bound there.
func (c *Class) Set(name string, u *Unit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.slots[name]
	if !ok {
		return fmt.Errorf("%s has no method %s", c.name, name)
	}

	if u.fn.Type() != current.fn.Type() {
		return fmt.Errorf("%s.%s has type %s, cannot attach %s", c.name, name, current.fn.Type(), u.fn.Type())
	}

	c.slots[name] = u

	return nil
}

// Call invokes method slot name with recv as the receiver.
func (c *Class) Call(name string, recv any, args ...any) ([]any, error) {
	u, ok := c.Unit(name)
	if !ok {
		return nil, fmt.Errorf("%s has no method %s", c.name, name)
	}

	return u.Call(append([]any{recv}, args...)...)
}

// Method returns the callable attached to method slot name as F, where F is
// the method expression type, e.g. func(Rect) float64.
func Method[F any](c *Class, name string) (F, error) {
	var zero F

	u, ok := c.Unit(name)
	if !ok {
		return zero, fmt.Errorf("%s has no method %s", c.name, name)
	}

	fn, ok := u.fn.Interface().(F)
	if !ok {
		return zero, fmt.Errorf("%s.%s has type %s", c.name, name, u.fn.Type())
	}

	return fn, nil
}
