package types

// EnvReading is the latest environment snapshot.
type EnvReading struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	PressureHPa  float64 `json:"pressure_hpa"`
}

// BatteryLevel is derived from one analog sample.
type BatteryLevel struct {
	Raw       uint32  `json:"raw"`
	MilliVolt uint32  `json:"mv"`
	Fraction  float64 `json:"fraction"` // 0..1 after clamping
}
