// Package env keeps the latest environment readings and derives the
// battery level from the analog sense line.
package env

import (
	"log/slog"

	"envpanel-go/types"
)

type TemperatureSensor interface {
	ReadTemperature() (float64, error) // °C
}

type HumiditySensor interface {
	ReadHumidity() (float64, error) // %RH
}

type PressureSensor interface {
	ReadPressure() (float64, error) // hPa
}

// Sensors bundles the three sources; one device may serve several.
type Sensors struct {
	Temperature TemperatureSensor
	Humidity    HumiditySensor
	Pressure    PressureSensor
}

// Snapshot carries no change flag: it is redrawn whenever anything else is.
type Snapshot struct {
	src Sensors
	cur types.EnvReading
	log *slog.Logger
}

func NewSnapshot(src Sensors, log *slog.Logger) *Snapshot {
	if log == nil {
		log = slog.Default()
	}
	return &Snapshot{src: src, log: log.With("component", "env")}
}

// Refresh reads every sensor. A failed read keeps the stale value.
func (s *Snapshot) Refresh() {
	if s.src.Pressure != nil {
		if v, err := s.src.Pressure.ReadPressure(); err == nil {
			s.cur.PressureHPa = v
		} else {
			s.log.Debug("pressure read failed", "err", err)
		}
	}
	if s.src.Temperature != nil {
		if v, err := s.src.Temperature.ReadTemperature(); err == nil {
			s.cur.TemperatureC = v
		} else {
			s.log.Debug("temperature read failed", "err", err)
		}
	}
	if s.src.Humidity != nil {
		if v, err := s.src.Humidity.ReadHumidity(); err == nil {
			s.cur.HumidityPct = v
		} else {
			s.log.Debug("humidity read failed", "err", err)
		}
	}
}

func (s *Snapshot) Reading() types.EnvReading { return s.cur }
