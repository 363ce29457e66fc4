//go:build !linux && !rp2040 && !rp2350

package platform

import (
	"envpanel-go/errcode"
	"envpanel-go/services/panel/env"
)

// BME280 is only available on Linux hosts.
type BME280 struct{}

func OpenBME280(uint16) (*BME280, error) {
	return nil, errcode.Wrap(errcode.SensorUnavailable, "bme280.open", errcode.Unsupported)
}

func (*BME280) Sensors() env.Sensors { return env.Sensors{} }
func (*BME280) Close() error         { return nil }
