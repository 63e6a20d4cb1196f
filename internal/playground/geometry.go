// Package playground is the sample host the shell edits when no other modules
// are embedded. Its functions are ordinary Go; the module wires them into hot
// slots.
package playground

import (
	"fmt"
	"math"
	"strings"

	"inplace.dev/pkg/inplace/pkg/live"
)

// Scale multiplies every figure returned by Describe.
var Scale = 1.0

// Rect is an axis-aligned rectangle.
type Rect struct {
	W, H float64
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Grow enlarges the rectangle by d on every side.
func (r *Rect) Grow(d float64) {
	r.W += 2 * d
	r.H += 2 * d
}

// Circle is a circle of radius R.
type Circle struct {
	R float64
}

// Area returns the circle's area.
func (c Circle) Area() float64 {
	return math.Pi * c.R * c.R
}

// Inc adds one.
func Inc(x int) int {
	return x + 1
}

// Hypot returns the length of the hypotenuse.
func Hypot(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

// Describe renders a figure with its scaled area.
func Describe(name string, area float64) string {
	return fmt.Sprintf("%s: %.2f", strings.ToUpper(name), area*Scale)
}

// Module returns a fresh live module exposing the playground to the shell.
func Module() *live.Module {
	mod := live.NewModule("inplace.dev/pkg/inplace/internal/playground")

	mod.Var("Scale", &Scale)
	mod.Def("Inc", Inc)
	mod.Def("Hypot", Hypot)
	mod.Def("Describe", Describe)

	rect := mod.Class("Rect", (*Rect)(nil))
	rect.Def("Area", Rect.Area)
	rect.Def("Grow", (*Rect).Grow)

	circle := mod.Class("Circle", (*Circle)(nil))
	circle.Def("Area", Circle.Area)

	return mod
}
