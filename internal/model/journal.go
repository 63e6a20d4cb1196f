package model

import "time"

// JournalAction names what happened to a unit.
type JournalAction string

const (
	ActionInstall JournalAction = "install"
	ActionRevert  JournalAction = "revert"
)

// JournalEntry is one install or revert of a session, in the order they
// happened. Text is the installed source; empty for reverts.
type JournalEntry struct {
	Seq    uint64
	Time   time.Time
	Action JournalAction
	Target string
	Hash   string
	Text   string
}
