//go:build linux && !rp2040 && !rp2350

package platform

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"envpanel-go/errcode"
	"envpanel-go/services/panel/env"
)

// senseMaxAge lets the three per-tick reads share one measurement.
const senseMaxAge = 200 * time.Millisecond

// BME280 reads a Bosch BMx280 on the host's default I2C bus.
type BME280 struct {
	mu   sync.Mutex
	bus  i2c.BusCloser
	dev  *bmxx80.Dev
	last physic.Env
	at   time.Time
}

// OpenBME280 initialises periph and opens the sensor at addr.
func OpenBME280(addr uint16) (*BME280, error) {
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.SensorUnavailable, "bme280.host_init", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, errcode.Wrap(errcode.SensorUnavailable, "bme280.open_bus", err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, errcode.Wrap(errcode.SensorUnavailable, "bme280.new", err)
	}
	return &BME280{bus: bus, dev: dev}, nil
}

func (b *BME280) sense() (physic.Env, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.at.IsZero() && time.Since(b.at) < senseMaxAge {
		return b.last, nil
	}
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return physic.Env{}, errcode.Wrap(errcode.SensorUnavailable, "bme280.sense", err)
	}
	b.last, b.at = e, time.Now()
	return e, nil
}

func (b *BME280) ReadTemperature() (float64, error) {
	e, err := b.sense()
	return e.Temperature.Celsius(), err
}

func (b *BME280) ReadHumidity() (float64, error) {
	e, err := b.sense()
	return float64(e.Humidity) / float64(physic.PercentRH), err
}

func (b *BME280) ReadPressure() (float64, error) {
	e, err := b.sense()
	return float64(e.Pressure) / float64(100*physic.Pascal), err
}

func (b *BME280) Sensors() env.Sensors {
	return env.Sensors{Temperature: b, Humidity: b, Pressure: b}
}

func (b *BME280) Close() error {
	_ = b.dev.Halt()
	return b.bus.Close()
}
