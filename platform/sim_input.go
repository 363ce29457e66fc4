//go:build !rp2040 && !rp2350

package platform

import (
	"bufio"
	"context"
	"io"
	"time"

	"go.uber.org/atomic"
)

// SimLine is an active-low button line; it idles high (released).
type SimLine struct {
	level *atomic.Bool
}

func NewSimLine() *SimLine { return &SimLine{level: atomic.NewBool(true)} }

func (l *SimLine) Get() bool { return l.level.Load() }
func (l *SimLine) Press()    { l.level.Store(false) }
func (l *SimLine) Release()  { l.level.Store(true) }

// SimPad holds the three simulated lines.
type SimPad struct {
	Up, Mid, Down *SimLine
}

func NewSimPad() SimPad {
	return SimPad{Up: NewSimLine(), Mid: NewSimLine(), Down: NewSimLine()}
}

// Line maps a key to a line: u/k up, m/space mid, d/j down.
func (p SimPad) Line(key byte) *SimLine {
	switch key {
	case 'u', 'k', 'U', 'K':
		return p.Up
	case 'm', ' ', 'M':
		return p.Mid
	case 'd', 'j', 'D', 'J':
		return p.Down
	}
	return nil
}

// ReadKeys turns bytes from r into presses held for hold, long enough for
// the panel loop to sample them. It returns when r ends or ctx is done.
func (p SimPad) ReadKeys(ctx context.Context, r io.Reader, hold time.Duration) error {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		line := p.Line(b)
		if line == nil {
			continue
		}
		line.Press()
		t := time.NewTimer(hold)
		select {
		case <-ctx.Done():
			t.Stop()
			line.Release()
			return nil
		case <-t.C:
		}
		line.Release()
	}
}
