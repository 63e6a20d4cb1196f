// Package main is the entry point for the inplace CLI. It ships with the
// playground module so the shell has something to edit.
package main

import (
	"inplace.dev/pkg/inplace/cmd"
	"inplace.dev/pkg/inplace/internal/playground"
)

func main() {
	cmd.Execute(playground.Module())
}
