// Package refresh decides when the screen is stale and redraws it as one
// batched frame. Nothing is drawn on ticks where no dirty flag is set.
package refresh

import (
	"fmt"
	"image/color"

	"envpanel-go/services/panel/env"
	"envpanel-go/types"
)

// Display is the drawing surface. Return values are never consulted.
type Display interface {
	Clear()
	StartWrite()
	EndWrite()
	SetTextScale(scale float32)
	DrawText(s string, x, y int16)
	DrawRect(x, y, w, h int16, c color.RGBA)
	FillRect(x, y, w, h int16, c color.RGBA)
}

// Dirty is a source with a consumable change flag.
type Dirty interface {
	Changed() bool
	ClearChanged()
}

// ClockView is what the gate needs from the clock.
type ClockView interface {
	Dirty
	Current() types.DateTime
}

// SelectionView is what the gate needs from the command registry.
type SelectionView interface {
	Dirty
	SelectedCaption() string
}

// Frame is the composed render payload.
type Frame struct {
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Temperature string             `json:"temperature"`
	Humidity    string             `json:"humidity"`
	Pressure    string             `json:"pressure"`
	Command     string             `json:"command"`
	Battery     types.BatteryLevel `json:"battery"`
	BatteryBar  int                `json:"battery_bar"` // fill width in px
}

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Green = color.RGBA{G: 0xFF, A: 0xFF}
)

// Screen geometry.
const (
	marginX     = 5
	timeX       = 24
	dateY       = 5
	dateToTime  = 28
	timeToEnv   = 42
	envLineStep = 26
	envToCmd    = 10
	timeScale   = 1.6

	battX, battY, battW, battH = 130, 38, 60, 20
	fillInset                  = 2
	BatteryBarSpan             = battW - 2*fillInset
)

// Gate combines the clock and selection dirty flags.
type Gate struct {
	disp    Display
	locale  Locale
	clock   ClockView
	sel     SelectionView
	battery *env.Battery
}

func NewGate(disp Display, locale Locale, clock ClockView, sel SelectionView, battery *env.Battery) *Gate {
	return &Gate{disp: disp, locale: locale, clock: clock, sel: sel, battery: battery}
}

// IsDue is true iff the time or selection changed flag is set.
func (g *Gate) IsDue() bool { return g.clock.Changed() || g.sel.Changed() }

// Compose formats every field of the frame. The battery is sampled here.
func (g *Gate) Compose(reading types.EnvReading) Frame {
	dt := g.clock.Current()
	f := Frame{
		Date:        FormatDate(dt.Date, g.locale),
		Time:        FormatTime(dt.Time),
		Temperature: fmt.Sprintf(g.locale.Temperature, reading.TemperatureC),
		Humidity:    fmt.Sprintf(g.locale.Humidity, reading.HumidityPct),
		Pressure:    fmt.Sprintf(g.locale.Pressure, reading.PressureHPa),
		Command:     fmt.Sprintf(g.locale.Command, g.sel.SelectedCaption()),
	}
	if g.battery != nil {
		f.Battery = g.battery.Level()
		f.BatteryBar = g.battery.Config().BarWidth(f.Battery.MilliVolt, BatteryBarSpan)
	}
	return f
}

// Refresh redraws when due and clears both flags. It reports whether a frame
// was drawn.
func (g *Gate) Refresh(reading types.EnvReading) (Frame, bool) {
	if !g.IsDue() {
		return Frame{}, false
	}
	f := g.Compose(reading)
	g.draw(f)
	g.clock.ClearChanged()
	g.sel.ClearChanged()
	return f, true
}

func (g *Gate) draw(f Frame) {
	d := g.disp
	d.Clear()
	d.StartWrite()

	y := int16(dateY)
	d.DrawText(f.Date, marginX, y)
	y += dateToTime

	d.SetTextScale(timeScale)
	d.DrawText(f.Time, timeX, y)
	d.SetTextScale(1)
	y += timeToEnv

	for _, line := range []string{f.Temperature, f.Humidity, f.Pressure} {
		d.DrawText(line, marginX, y)
		y += envLineStep
	}

	y += envToCmd
	d.DrawText(f.Command, marginX, y)

	d.DrawRect(battX, battY, battW, battH, White)
	d.FillRect(battX+fillInset, battY+fillInset, int16(f.BatteryBar), battH-2*fillInset, Green)

	d.EndWrite()
}

// FormatDate renders YYYY/MM/DD(<weekday>).
func FormatDate(d types.Date, loc Locale) string {
	wd := "?"
	if d.Weekday >= 0 && d.Weekday < len(loc.Weekdays) {
		wd = loc.Weekdays[d.Weekday]
	}
	return fmt.Sprintf("%04d/%02d/%02d(%s)", d.Year, d.Month, d.Day, wd)
}

// FormatTime renders zero-padded HH:MM.
func FormatTime(t types.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
