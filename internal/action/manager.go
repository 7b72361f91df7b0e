// Package action implements undo/redo over annotation edits.
//
// Every mutation of annotation state is an Action. Actions capture the state
// they need to reverse themselves when they are built, so Undo never
// recomputes anything.
package action

import (
	"context"
	"fmt"

	"github.com/lewtec/rotulador-editor/internal/logging"
)

// Result is what an action reports to the UI layer.
//
// Success tells whether local state was changed; only successful actions are
// stacked. Err reports a persistence failure: local state is already applied
// and it is up to the caller to warn the user or revert.
type Result struct {
	Success bool
	Err     error
}

// Action is a reversible unit of mutation
type Action interface {
	Do(ctx context.Context) Result
	Undo(ctx context.Context) Result
}

// Named is implemented by actions that can describe themselves in a history
type Named interface {
	Name() string
}

func nameOf(a Action) string {
	if n, ok := a.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", a)
}

// Manager keeps the undo and redo stacks of one editing surface.
//
// Calls must be serialized by the caller: a new action must not be issued
// while a previous Do, Undo or Redo is still running.
type Manager struct {
	undo []Action
	redo []Action
}

func NewManager() *Manager {
	return &Manager{}
}

// Do runs a and stacks it when it succeeds. A new edit drops the redo history.
func (m *Manager) Do(ctx context.Context, a Action) Result {
	res := a.Do(ctx)
	if !res.Success {
		logging.Logger().Debug("actions: action failed, not stacked", "action", nameOf(a), "err", res.Err)
		return res
	}
	m.undo = append(m.undo, a)
	m.redo = nil
	return res
}

// Undo reverts the most recent action. It is a no-op on an empty stack.
func (m *Manager) Undo(ctx context.Context) Result {
	if len(m.undo) == 0 {
		return Result{}
	}
	a := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	res := a.Undo(ctx)
	if res.Success {
		m.redo = append(m.redo, a)
	}
	return res
}

// Redo runs again the most recently undone action
func (m *Manager) Redo(ctx context.Context) Result {
	if len(m.redo) == 0 {
		return Result{}
	}
	a := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	res := a.Do(ctx)
	if res.Success {
		m.undo = append(m.undo, a)
	}
	return res
}

// History names the actions that can be undone, oldest first
func (m *Manager) History() []string {
	names := make([]string, len(m.undo))
	for i, a := range m.undo {
		names[i] = nameOf(a)
	}
	return names
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Clear drops both stacks, used when the view is torn down
func (m *Manager) Clear() {
	m.undo, m.redo = nil, nil
}
