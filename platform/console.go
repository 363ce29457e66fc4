//go:build !rp2040 && !rp2350

package platform

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console renders each frame as a bordered block on a terminal. Draw calls
// are buffered between StartWrite and EndWrite and printed at EndWrite.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	scale  float32
	texts  []placed
	rectW  int16
	fillW  int16
	fill   color.RGBA
	frames int

	frame   lipgloss.Style
	big     lipgloss.Style
	battery lipgloss.Style
}

type placed struct {
	s    string
	x, y int16
	big  bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{
		w:     w,
		scale: 1,
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(34),
		big:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		battery: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

func (c *Console) Clear() {
	c.mu.Lock()
	c.texts = c.texts[:0]
	c.rectW, c.fillW = 0, 0
	c.mu.Unlock()
}

func (c *Console) StartWrite() {}

func (c *Console) SetTextScale(s float32) {
	c.mu.Lock()
	c.scale = s
	c.mu.Unlock()
}

func (c *Console) DrawText(s string, x, y int16) {
	c.mu.Lock()
	c.texts = append(c.texts, placed{s: s, x: x, y: y, big: c.scale > 1})
	c.mu.Unlock()
}

func (c *Console) DrawRect(x, y, w, h int16, _ color.RGBA) {
	c.mu.Lock()
	c.rectW = w
	c.mu.Unlock()
}

func (c *Console) FillRect(x, y, w, h int16, col color.RGBA) {
	c.mu.Lock()
	c.fillW, c.fill = w, col
	c.mu.Unlock()
}

// EndWrite prints the buffered frame.
func (c *Console) EndWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	fmt.Fprintln(c.w, c.render())
}

// Frames counts completed frames.
func (c *Console) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Console) render() string {
	items := append([]placed(nil), c.texts...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].y < items[j].y })

	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		if it.big {
			b.WriteString(c.big.Render(it.s))
		} else {
			b.WriteString(it.s)
		}
		if i == 0 {
			b.WriteString("  " + c.batteryBar())
		}
	}
	return c.frame.Render(b.String())
}

// batteryBar scales the fill to a ten-cell gauge.
func (c *Console) batteryBar() string {
	const cells = 10
	inner := c.rectW - 4
	if inner <= 0 {
		return ""
	}
	n := int(c.fillW) * cells / int(inner)
	if n > cells {
		n = cells
	}
	style := c.battery
	if c.fill.A != 0 {
		style = style.Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.fill.R, c.fill.G, c.fill.B)))
	}
	return "[" + style.Render(strings.Repeat("█", n)) + strings.Repeat("·", cells-n) + "]"
}
