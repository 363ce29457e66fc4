package types

import "time"

// Date as reported by the RTC. Weekday is 0 (Sunday) .. 6.
type Date struct {
	Year    int `json:"year"`
	Month   int `json:"month"` // 1..12
	Day     int `json:"day"`
	Weekday int `json:"weekday"`
}

// TimeOfDay as reported by the RTC.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// SameMinute reports whether t and o share hour and minute.
func (t TimeOfDay) SameMinute(o TimeOfDay) bool {
	return t.Hour == o.Hour && t.Minute == o.Minute
}

// DateTime is the last-known wall clock reading.
type DateTime struct {
	Date Date      `json:"date"`
	Time TimeOfDay `json:"time"`
}

// DateTimeOf splits t (already in the desired zone) into RTC fields.
func DateTimeOf(t time.Time) DateTime {
	return DateTime{
		Date: Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Weekday: int(t.Weekday())},
		Time: TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()},
	}
}

// In returns the DateTime as a time.Time in loc.
func (d DateTime) In(loc *time.Location) time.Time {
	return time.Date(d.Date.Year, time.Month(d.Date.Month), d.Date.Day,
		d.Time.Hour, d.Time.Minute, d.Time.Second, 0, loc)
}

// SyncState of the clock synchronisation machine.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncFailed  SyncState = "sync_failed"
	SyncSynced  SyncState = "synced"
)

// SyncStatus is published (retained) after each synchronisation attempt.
type SyncStatus struct {
	State SyncState `json:"state"`
	Error string    `json:"error,omitempty"` // errcode value
	At    time.Time `json:"at"`
}
