// Package command holds the fixed, ordered list of panel actions and the
// cursor that selects one of them.
package command

import (
	"context"

	"envpanel-go/errcode"
)

// Command is a named action. Commands are immutable once registered.
type Command struct {
	Caption string
	Run     func(ctx context.Context)
}

// Registry is a non-empty command table plus a bounded selection index.
type Registry struct {
	cmds    []Command
	index   int
	changed bool
}

// NewRegistry copies cmds and selects initial. A negative initial selects
// the middle entry.
func NewRegistry(cmds []Command, initial int) (*Registry, error) {
	if len(cmds) == 0 {
		return nil, errcode.InvalidParams
	}
	if initial < 0 {
		initial = len(cmds) / 2
	}
	if initial >= len(cmds) {
		return nil, errcode.InvalidParams
	}
	return &Registry{cmds: append([]Command(nil), cmds...), index: initial}, nil
}

func (r *Registry) Len() int   { return len(r.cmds) }
func (r *Registry) Index() int { return r.index }

// MoveUp selects the previous command, clamping at 0.
func (r *Registry) MoveUp() {
	if r.index > 0 {
		r.index--
		r.changed = true
	}
}

// MoveDown selects the next command, clamping at the last index.
func (r *Registry) MoveDown() {
	if r.index < len(r.cmds)-1 {
		r.index++
		r.changed = true
	}
}

// Activate runs the selected command. Selection and the changed flag are
// left untouched.
func (r *Registry) Activate(ctx context.Context) {
	if run := r.cmds[r.index].Run; run != nil {
		run(ctx)
	}
}

// SelectedCaption returns the caption of the selected command.
func (r *Registry) SelectedCaption() string { return r.cmds[r.index].Caption }

// Changed reports whether the selection moved since the last ClearChanged.
func (r *Registry) Changed() bool { return r.changed }

func (r *Registry) ClearChanged() { r.changed = false }

// Dispatch applies at most one action for this tick, in priority order
// up > down > activate.
func (r *Registry) Dispatch(ctx context.Context, up, down, activate bool) {
	switch {
	case up:
		r.MoveUp()
	case down:
		r.MoveDown()
	case activate:
		r.Activate(ctx)
	}
}
