// Package platform binds the panel's peripheral interfaces to real or
// simulated hardware, selected by build tags.
package platform

import (
	"log/slog"

	"tinygo.org/x/drivers"

	"envpanel-go/drivers/bm8563"
	"envpanel-go/errcode"
	"envpanel-go/types"
)

// RTC adapts a BM8563 to the clock's RTC interface.
type RTC struct {
	dev bm8563.Device
	log *slog.Logger
}

// NewRTC starts the oscillator. A low-voltage flag on the first read is
// logged: the stored time cannot be trusted until the next sync.
func NewRTC(bus drivers.I2C, addr uint16, log *slog.Logger) (*RTC, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &RTC{dev: bm8563.New(bus), log: log.With("component", "rtc")}
	if addr != 0 {
		r.dev.Address = addr
	}
	if err := r.dev.Begin(); err != nil {
		return nil, errcode.Wrap(errcode.RTCReadFailed, "rtc.begin", err)
	}
	if _, err := r.dev.ReadTime(); err == nil && r.dev.LowVoltage() {
		r.log.Warn("rtc reports low voltage, time is unreliable until synced")
	}
	return r, nil
}

func (r *RTC) ReadTime() (types.TimeOfDay, error) {
	t, err := r.dev.ReadTime()
	if err != nil {
		return types.TimeOfDay{}, errcode.Wrap(errcode.RTCReadFailed, "rtc.read_time", err)
	}
	return types.TimeOfDay{Hour: t.Hour, Minute: t.Minute, Second: t.Second}, nil
}

func (r *RTC) ReadDate() (types.Date, error) {
	d, err := r.dev.ReadDate()
	if err != nil {
		return types.Date{}, errcode.Wrap(errcode.RTCReadFailed, "rtc.read_date", err)
	}
	return types.Date{Year: d.Year, Month: d.Month, Day: d.Day, Weekday: d.Weekday}, nil
}

func (r *RTC) SetTime(t types.TimeOfDay) error {
	return r.dev.SetTime(bm8563.Time{Hour: t.Hour, Minute: t.Minute, Second: t.Second})
}

func (r *RTC) SetDate(d types.Date) error {
	return r.dev.SetDate(bm8563.Date{Year: d.Year, Month: d.Month, Day: d.Day, Weekday: d.Weekday})
}
