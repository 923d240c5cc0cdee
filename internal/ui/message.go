package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/faves/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTaskDone MsgKind = iota
)

// taskDoneMsg is the constructor for [MsgTaskDone]
func taskDoneMsg(ev tasks.Event) Msg {
	return Msg{kind: MsgTaskDone, data: ev}
}

// Event returns the controller event carried by a [MsgTaskDone] message.
func (m Msg) Event() (tasks.Event, bool) {
	if m.kind != MsgTaskDone {
		return nil, false
	}
	ev, ok := m.data.(tasks.Event)
	return ev, ok
}
