package model

import (
	"fmt"

	"inplace.dev/pkg/inplace/pkg/live"
)

// Location is where an original unit is defined.
type Location struct {
	File Path
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}

	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Less orders locations by file, then line.
func (l Location) Less(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}

	return l.Line < other.Line
}

// LocationOf returns the position the binary records for u, or the zero
// Location. For functions without a frame that is the first body line.
func LocationOf(u *live.Unit) Location {
	file, line, ok := u.Position()
	if !ok {
		return Location{}
	}

	return Location{File: Path(file), Line: line}
}

// SourceRecord is the text currently installed for a patched original.
type SourceRecord struct {
	Text        string
	Hash        string
	Replacement *live.Unit
	Location    Location // declaration of the original
}

// Edit is one entry of the active edits listing.
type Edit struct {
	Location Location `yaml:"location"`
	Target   string   `yaml:"target"`
	Kind     string   `yaml:"kind"`
	Hash     string   `yaml:"hash"`
	Source   string   `yaml:"source"`
}

// UnitInfo describes one hot slot for listings.
type UnitInfo struct {
	Target   string
	Kind     string
	Type     string
	Location Location
	Patched  bool
	Source   bool // source text could be found for the original
}
