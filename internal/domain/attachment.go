package domain

import (
	"fmt"

	"inplace.dev/pkg/inplace/pkg/live"
)

// Location is a slot that holds a callable: a module attribute or a class
// attribute.
type Location interface {
	fmt.Stringer
	bind(u *live.Unit) error
	current() (*live.Unit, bool)
}

// AttachmentStrategy finds the slot of a unit and rebinds it. Install and
// revert both go through Attach, so the registry never looks at unit kinds.
type AttachmentStrategy interface {
	Locate(u *live.Unit) (Location, error)
	Attach(loc Location, u *live.Unit) error
}

type attachmentStrategy struct{}

// NewAttachmentStrategy returns the strategy for live modules and classes.
func NewAttachmentStrategy() AttachmentStrategy {
	return attachmentStrategy{}
}

func (attachmentStrategy) Locate(u *live.Unit) (Location, error) {
	if u == nil {
		return nil, fmt.Errorf("cannot locate a nil unit")
	}

	if c := u.Class(); c != nil {
		return classSlot{class: c, name: u.Name()}, nil
	}

	if u.Module() == nil {
		return nil, fmt.Errorf("unit %s is not bound to a module", u.Name())
	}

	return moduleSlot{module: u.Module(), name: u.Name()}, nil
}

// Attach overwrites whatever loc currently holds.
func (attachmentStrategy) Attach(loc Location, u *live.Unit) error {
	return loc.bind(u)
}

type moduleSlot struct {
	module *live.Module
	name   string
}

func (s moduleSlot) String() string { return s.module.Name() + "." + s.name }

func (s moduleSlot) bind(u *live.Unit) error { return s.module.Set(s.name, u) }

func (s moduleSlot) current() (*live.Unit, bool) { return s.module.Unit(s.name) }

type classSlot struct {
	class *live.Class
	name  string
}

func (s classSlot) String() string {
	return s.class.Module().Name() + "." + s.class.Name() + "." + s.name
}

func (s classSlot) bind(u *live.Unit) error { return s.class.Set(s.name, u) }

func (s classSlot) current() (*live.Unit, bool) { return s.class.Unit(s.name) }
