// Package bm8563 provides a driver for the BM8563 real-time clock, which is
// register compatible with the NXP PCF8563.
//
//	d := bm8563.New(i2c)
//	err := d.Begin()
//	t, err := d.ReadTime()
//	err = d.SetDate(bm8563.Date{Year: 2024, Month: 5, Day: 1, Weekday: 3})
//
// All calendar fields are plain integers; BCD packing happens here. The chip
// does not derive the weekday from the date, callers must supply it.
package bm8563

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x51

// Registers.
const (
	regControl1 = 0x00
	regControl2 = 0x01
	regSeconds  = 0x02
	regDays     = 0x05

	maskSeconds = 0x7F
	maskMinutes = 0x7F
	maskHours   = 0x3F
	maskDays    = 0x3F
	maskWeekday = 0x07
	maskMonths  = 0x1F

	bitLowVoltage = 0x80 // seconds register: clock integrity not guaranteed
	bitCentury    = 0x80 // months register: set means 19xx
)

// Errors returned by the driver.
var (
	ErrInvalidValue = errors.New("bm8563: value out of range")
)

// Time is a time of day.
type Time struct {
	Hour, Minute, Second int
}

// Date is a calendar date. Weekday is 0 (Sunday) .. 6.
type Date struct {
	Year, Month, Day, Weekday int
}

// Device wraps an I2C connection to a BM8563.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [5]byte
	r [4]byte

	lowVoltage bool
}

// New creates a new BM8563 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Begin clears both control registers (clock running, alarms and timer off).
func (d *Device) Begin() error {
	d.w[0] = regControl1
	d.w[1] = 0x00
	d.w[2] = 0x00
	return d.bus.Tx(d.Address, d.w[:3], nil)
}

// ReadTime reads hours, minutes and seconds.
func (d *Device) ReadTime() (Time, error) {
	d.w[0] = regSeconds
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:3]); err != nil {
		return Time{}, err
	}
	d.lowVoltage = d.r[0]&bitLowVoltage != 0
	return Time{
		Second: fromBCD(d.r[0] & maskSeconds),
		Minute: fromBCD(d.r[1] & maskMinutes),
		Hour:   fromBCD(d.r[2] & maskHours),
	}, nil
}

// ReadDate reads day, weekday, month and year.
func (d *Device) ReadDate() (Date, error) {
	d.w[0] = regDays
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:4]); err != nil {
		return Date{}, err
	}
	year := fromBCD(d.r[3])
	if d.r[2]&bitCentury != 0 {
		year += 1900
	} else {
		year += 2000
	}
	return Date{
		Day:     fromBCD(d.r[0] & maskDays),
		Weekday: int(d.r[1] & maskWeekday),
		Month:   fromBCD(d.r[2] & maskMonths),
		Year:    year,
	}, nil
}

// SetTime writes hours, minutes and seconds. Writing the seconds register
// also clears the low-voltage flag.
func (d *Device) SetTime(t Time) error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return ErrInvalidValue
	}
	d.w[0] = regSeconds
	d.w[1] = toBCD(t.Second)
	d.w[2] = toBCD(t.Minute)
	d.w[3] = toBCD(t.Hour)
	if err := d.bus.Tx(d.Address, d.w[:4], nil); err != nil {
		return err
	}
	d.lowVoltage = false
	return nil
}

// SetDate writes day, weekday, month and year (1900..2099).
func (d *Device) SetDate(dt Date) error {
	if dt.Year < 1900 || dt.Year > 2099 || dt.Month < 1 || dt.Month > 12 ||
		dt.Day < 1 || dt.Day > 31 || dt.Weekday < 0 || dt.Weekday > 6 {
		return ErrInvalidValue
	}
	month := toBCD(dt.Month)
	year := dt.Year - 2000
	if dt.Year < 2000 {
		month |= bitCentury
		year = dt.Year - 1900
	}
	d.w[0] = regDays
	d.w[1] = toBCD(dt.Day)
	d.w[2] = byte(dt.Weekday)
	d.w[3] = month
	d.w[4] = toBCD(year)
	return d.bus.Tx(d.Address, d.w[:5], nil)
}

// LowVoltage reports the integrity flag seen by the last ReadTime.
func (d *Device) LowVoltage() bool { return d.lowVoltage }

func toBCD(v int) byte   { return byte((v/10)<<4 | v%10) }
func fromBCD(b byte) int { return int(b>>4)*10 + int(b&0x0F) }
