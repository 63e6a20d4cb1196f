// Package model defines the data structures shared by the patching layers.
package model

// Path represents a file system path.
type Path string

// Import is one import spec of a Go file.
type Import struct {
	Name string // explicit name, empty when the package name is used
	Path string
}

// FuncSource is the verbatim source of a function or method declaration as
// found in its defining file.
type FuncSource struct {
	File    Path
	Line    int
	Text    string
	Literal bool // Text is a func literal and has no name of its own
	Imports []Import
}
