// Package input derives one-tick press events from momentary, active-low
// button lines sampled once per main-loop tick.
package input

// Line is a raw digital input. Get returns the electrical level
// (true = high = released for an active-low button).
type Line interface {
	Get() bool
}

// Button tracks one line across polls.
type Button struct {
	name  string
	line  Line
	level bool
	prev  bool
}

// NewButton starts in the released state on both the current and previous
// sample so that a line held low at boot yields one press on the first Update.
func NewButton(name string, line Line) *Button {
	return &Button{name: name, line: line, level: true, prev: true}
}

func (b *Button) Name() string { return b.name }

// Update samples the line, shifting the stored level into prev.
func (b *Button) Update() {
	b.prev = b.level
	b.level = b.line.Get()
}

// IsHeld reports whether the current sample is the pressed level.
func (b *Button) IsHeld() bool { return !b.level }

// WasPressed is true only on the tick the line went released -> pressed.
func (b *Button) WasPressed() bool { return b.prev != b.level && !b.level }

// Pad groups the three panel buttons.
type Pad struct {
	Up, Mid, Down *Button
}

// Update polls every button once.
func (p Pad) Update() {
	p.Up.Update()
	p.Mid.Update()
	p.Down.Update()
}
