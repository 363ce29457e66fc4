//go:build !rp2040 && !rp2350

package platform

import (
	"errors"
	"sync"
	"time"
)

// SimRTCBus emulates a BM8563 on an I2C bus. The clock runs from the host's
// monotonic time; register writes re-base it.
type SimRTCBus struct {
	mu    sync.Mutex
	addr  uint16
	loc   *time.Location
	now   func() time.Time
	base  time.Time // RTC reading at setAt
	setAt time.Time
	regs  [16]byte
}

var errNoDevice = errors.New("sim i2c: no device at address")

// NewSimRTCBus starts the simulated RTC at now in loc.
func NewSimRTCBus(addr uint16, loc *time.Location, now func() time.Time) *SimRTCBus {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	t := now()
	return &SimRTCBus{addr: addr, loc: loc, now: now, base: t.In(loc).Truncate(time.Second), setAt: t}
}

func (s *SimRTCBus) current() time.Time {
	return s.base.Add(s.now().Sub(s.setAt))
}

func (s *SimRTCBus) load() {
	t := s.current()
	s.regs[0x02] = bcd(t.Second())
	s.regs[0x03] = bcd(t.Minute())
	s.regs[0x04] = bcd(t.Hour())
	s.regs[0x05] = bcd(t.Day())
	s.regs[0x06] = byte(t.Weekday())
	month := bcd(int(t.Month()))
	year := t.Year() - 2000
	if t.Year() < 2000 {
		month |= 0x80
		year = t.Year() - 1900
	}
	s.regs[0x07] = month
	s.regs[0x08] = bcd(year)
}

func (s *SimRTCBus) store() {
	year := unbcd(s.regs[0x08]) + 2000
	if s.regs[0x07]&0x80 != 0 {
		year -= 100
	}
	s.base = time.Date(year, time.Month(unbcd(s.regs[0x07]&0x1F)), unbcd(s.regs[0x05]&0x3F),
		unbcd(s.regs[0x04]&0x3F), unbcd(s.regs[0x03]&0x7F), unbcd(s.regs[0x02]&0x7F), 0, s.loc)
	s.setAt = s.now()
}

// Tx implements drivers.I2C.
func (s *SimRTCBus) Tx(addr uint16, w, r []byte) error {
	if addr != s.addr {
		return errNoDevice
	}
	if len(w) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	reg := int(w[0])
	if len(w) > 1 {
		touched := false
		for i, b := range w[1:] {
			if n := reg + i; n < len(s.regs) {
				s.regs[n] = b
				touched = touched || (n >= 0x02 && n <= 0x08)
			}
		}
		if touched {
			s.store()
		}
	}
	for i := range r {
		if n := reg + i; n < len(s.regs) {
			r[i] = s.regs[n]
		}
	}
	return nil
}

// Now reports the simulated wall clock.
func (s *SimRTCBus) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func bcd(v int) byte   { return byte((v/10)<<4 | v%10) }
func unbcd(b byte) int { return int(b>>4)*10 + int(b&0x0F) }
