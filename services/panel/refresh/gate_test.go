package refresh

import (
	"image/color"
	"strings"
	"testing"

	"envpanel-go/services/panel/env"
	"envpanel-go/types"
)

type recDisplay struct {
	calls []string
	texts []string
	fillW int16
}

func (d *recDisplay) Clear()                 { d.calls = append(d.calls, "clear") }
func (d *recDisplay) StartWrite()            { d.calls = append(d.calls, "start") }
func (d *recDisplay) EndWrite()              { d.calls = append(d.calls, "end") }
func (d *recDisplay) SetTextScale(s float32) { d.calls = append(d.calls, "scale") }
func (d *recDisplay) DrawText(s string, x, y int16) {
	d.calls = append(d.calls, "text")
	d.texts = append(d.texts, s)
}
func (d *recDisplay) DrawRect(x, y, w, h int16, c color.RGBA) { d.calls = append(d.calls, "rect") }
func (d *recDisplay) FillRect(x, y, w, h int16, c color.RGBA) {
	d.calls = append(d.calls, "fill")
	d.fillW = w
}

type fakeClock struct {
	dt      types.DateTime
	changed bool
}

func (f *fakeClock) Changed() bool           { return f.changed }
func (f *fakeClock) ClearChanged()           { f.changed = false }
func (f *fakeClock) Current() types.DateTime { return f.dt }

type fakeSel struct {
	caption string
	changed bool
}

func (f *fakeSel) Changed() bool           { return f.changed }
func (f *fakeSel) ClearChanged()           { f.changed = false }
func (f *fakeSel) SelectedCaption() string { return f.caption }

type fixedADC uint32

func (a fixedADC) ReadRaw() uint32 { return uint32(a) }

func sample() types.DateTime {
	return types.DateTime{
		Date: types.Date{Year: 2025, Month: 3, Day: 7, Weekday: 5},
		Time: types.TimeOfDay{Hour: 8, Minute: 31, Second: 12},
	}
}

func TestIsDueTruthTable(t *testing.T) {
	cases := []struct{ clk, sel, want bool }{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, c := range cases {
		g := NewGate(&recDisplay{}, English, &fakeClock{changed: c.clk}, &fakeSel{changed: c.sel}, nil)
		if got := g.IsDue(); got != c.want {
			t.Fatalf("IsDue(clock=%v, sel=%v) = %v, want %v", c.clk, c.sel, got, c.want)
		}
	}
}

func TestNotDueMakesNoDisplayCalls(t *testing.T) {
	d := &recDisplay{}
	g := NewGate(d, English, &fakeClock{dt: sample()}, &fakeSel{caption: "--"}, nil)

	if _, drawn := g.Refresh(types.EnvReading{}); drawn {
		t.Fatal("refresh should not draw when nothing changed")
	}
	if len(d.calls) != 0 {
		t.Fatalf("display touched on idle tick: %v", d.calls)
	}
}

func TestDueDrawsOneFrameAndClearsFlags(t *testing.T) {
	d := &recDisplay{}
	clk := &fakeClock{dt: sample(), changed: true}
	sel := &fakeSel{caption: "Send data", changed: true}
	bat := env.NewBattery(fixedADC(0), env.DefaultBattery)
	g := NewGate(d, English, clk, sel, bat)

	reading := types.EnvReading{TemperatureC: 22.34, HumidityPct: 45.06, PressureHPa: 1013.25}
	f, drawn := g.Refresh(reading)
	if !drawn {
		t.Fatal("expected a redraw")
	}
	if clk.Changed() || sel.Changed() {
		t.Fatal("both flags must be cleared after a redraw")
	}
	if g.IsDue() {
		t.Fatal("gate still due after redraw")
	}

	want := Frame{
		Date:        "2025/03/07(Fri)",
		Time:        "08:31",
		Temperature: "Temp:22.3C",
		Humidity:    "Humi:45.1%",
		Pressure:    "Pres:1013.2hPa",
		Command:     "CMD:Send data",
	}
	if f.Date != want.Date || f.Time != want.Time || f.Command != want.Command {
		t.Fatalf("frame = %+v", f)
	}
	if f.Temperature != want.Temperature || f.Humidity != want.Humidity {
		t.Fatalf("sensor lines = %q %q", f.Temperature, f.Humidity)
	}
	if !strings.HasPrefix(f.Pressure, "Pres:101") || !strings.HasSuffix(f.Pressure, "hPa") {
		t.Fatalf("pressure line = %q", f.Pressure)
	}

	if d.calls[0] != "clear" || d.calls[1] != "start" || d.calls[len(d.calls)-1] != "end" {
		t.Fatalf("frame not batched: %v", d.calls)
	}
	if len(d.texts) != 6 {
		t.Fatalf("drew %d text items, want 6", len(d.texts))
	}
	if d.fillW != 0 {
		t.Fatalf("empty battery fill = %d", d.fillW)
	}

	// Second tick with nothing new stays silent.
	n := len(d.calls)
	if _, drawn := g.Refresh(reading); drawn || len(d.calls) != n {
		t.Fatal("second tick should not redraw")
	}
}

func TestBatteryBarWidth(t *testing.T) {
	if BatteryBarSpan != 56 {
		t.Fatalf("bar span = %d", BatteryBarSpan)
	}
	cfg := env.BatteryConfig{Scale: 1, MinMV: 3600, MaxMV: 4200}
	d := &recDisplay{}
	g := NewGate(d, English, &fakeClock{changed: true}, &fakeSel{}, env.NewBattery(fixedADC(3900), cfg))
	f, _ := g.Refresh(types.EnvReading{})
	if f.BatteryBar != 28 || d.fillW != 28 {
		t.Fatalf("bar = %d fill = %d, want 28", f.BatteryBar, d.fillW)
	}
}

func TestJapaneseFormat(t *testing.T) {
	dt := sample()
	if got := FormatDate(dt.Date, Japanese); got != "2025/03/07(金)" {
		t.Fatalf("FormatDate = %q", got)
	}
	g := NewGate(&recDisplay{}, Japanese, &fakeClock{dt: dt}, &fakeSel{caption: Japanese.SendCaption}, nil)
	f := g.Compose(types.EnvReading{TemperatureC: 21.04, HumidityPct: 50})
	if f.Temperature != "気温:21.0℃" || f.Humidity != "湿度:50.0%" {
		t.Fatalf("ja lines = %q %q", f.Temperature, f.Humidity)
	}
	if f.Command != "CMD:データ送信" {
		t.Fatalf("ja command = %q", f.Command)
	}
}

func TestFormatTimePads(t *testing.T) {
	if got := FormatTime(types.TimeOfDay{Hour: 0, Minute: 5}); got != "00:05" {
		t.Fatalf("FormatTime = %q", got)
	}
}

func TestFormatDateBadWeekday(t *testing.T) {
	if got := FormatDate(types.Date{Year: 2025, Month: 1, Day: 1, Weekday: 9}, English); got != "2025/01/01(?)" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestLocaleByName(t *testing.T) {
	if l, ok := LocaleByName("ja"); !ok || l.Name != "ja" {
		t.Fatal("ja missing")
	}
	if _, ok := LocaleByName("fr"); ok {
		t.Fatal("fr should be unknown")
	}
}
