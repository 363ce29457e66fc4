//go:build !rp2040 && !rp2350

package platform

import (
	"math"
	"sync"

	"envpanel-go/services/panel/env"
)

// SimSensors drift along slow sine waves, one step per read of temperature.
type SimSensors struct {
	mu   sync.Mutex
	step int
}

func (s *SimSensors) phase(period float64) float64 {
	return math.Sin(2 * math.Pi * float64(s.step) / period)
}

func (s *SimSensors) ReadTemperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step++
	return 22 + 1.5*s.phase(240), nil
}

func (s *SimSensors) ReadHumidity() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 48 + 6*s.phase(360), nil
}

func (s *SimSensors) ReadPressure() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1012 + 3*s.phase(600), nil
}

// Sensors returns the simulator as all three sources.
func (s *SimSensors) Sensors() env.Sensors {
	return env.Sensors{Temperature: s, Humidity: s, Pressure: s}
}

// SimADC drains from full to empty over steps samples, then holds.
type SimADC struct {
	mu       sync.Mutex
	From, To uint32
	Steps    int
	n        int
}

func (a *SimADC) ReadRaw() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Steps <= 0 || a.n >= a.Steps {
		return a.To
	}
	a.n++
	span := int64(a.To) - int64(a.From)
	return uint32(int64(a.From) + span*int64(a.n)/int64(a.Steps))
}
