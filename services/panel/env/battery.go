package env

import (
	"envpanel-go/types"
	"envpanel-go/x/mathx"
)

// ADC is the analog battery sense line.
type ADC interface {
	ReadRaw() uint32
}

// BatteryConfig maps raw counts to millivolts and bounds the usable range.
type BatteryConfig struct {
	Scale float64 // mV per raw count (divider ratio)
	MinMV uint32  // reads as empty
	MaxMV uint32  // reads as full
}

// DefaultBattery matches a 5.1k/20k divider on a single Li-ion cell.
var DefaultBattery = BatteryConfig{Scale: 25.1 / 5.1, MinMV: 3600, MaxMV: 4200}

// Battery derives a level on every call; nothing is cached.
type Battery struct {
	adc ADC
	cfg BatteryConfig
}

func NewBattery(adc ADC, cfg BatteryConfig) *Battery {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultBattery.Scale
	}
	if cfg.MinMV == 0 && cfg.MaxMV == 0 {
		cfg.MinMV, cfg.MaxMV = DefaultBattery.MinMV, DefaultBattery.MaxMV
	}
	return &Battery{adc: adc, cfg: cfg}
}

func (b *Battery) Config() BatteryConfig { return b.cfg }

// Level samples the ADC once.
func (b *Battery) Level() types.BatteryLevel {
	var raw uint32
	if b.adc != nil {
		raw = b.adc.ReadRaw()
	}
	return b.cfg.FromRaw(raw)
}

// FromRaw converts a raw sample.
func (c BatteryConfig) FromRaw(raw uint32) types.BatteryLevel {
	mv := uint32(float64(raw) * c.Scale)
	return c.FromMilliVolt(raw, mv)
}

// FromMilliVolt clamps mv to [MinMV, MaxMV] and maps it linearly to [0, 1].
func (c BatteryConfig) FromMilliVolt(raw, mv uint32) types.BatteryLevel {
	return types.BatteryLevel{
		Raw:       raw,
		MilliVolt: mv,
		Fraction:  mathx.Fraction(mv, c.MinMV, c.MaxMV),
	}
}

// BarWidth is the fill width in pixels for a bar of span pixels.
func (c BatteryConfig) BarWidth(mv uint32, span int) int {
	return mathx.Scale(mv, c.MinMV, c.MaxMV, span)
}
