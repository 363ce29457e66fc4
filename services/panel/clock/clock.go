// Package clock keeps the last-known RTC date/time for display and runs
// one-shot network time synchronisation into the RTC.
package clock

import (
	"context"
	"log/slog"
	"time"

	"envpanel-go/errcode"
	"envpanel-go/types"
)

// RTC is the real-time-clock peripheral. The RTC keeps weekday consistent
// with date; this package never recomputes it.
type RTC interface {
	ReadTime() (types.TimeOfDay, error)
	ReadDate() (types.Date, error)
	SetTime(types.TimeOfDay) error
	SetDate(types.Date) error
}

// Options configures a Clock. Link and Source may be nil, in which case
// every Sync fails with no_network.
type Options struct {
	Link   Link
	Source TimeSource
	Sync   SyncConfig

	Logger *slog.Logger
	// Now stamps published sync status; defaults to time.Now.
	Now func() time.Time
	// OnStatus observes every state transition.
	OnStatus func(types.SyncStatus)
}

// Clock holds the displayed date/time and the sync state machine.
type Clock struct {
	rtc  RTC
	opts Options
	log  *slog.Logger

	cur     types.DateTime
	read    bool // at least one successful RTC read
	changed bool

	state types.SyncState
	last  types.SyncStatus
}

// New seeds the changed flag so the first tick always redraws.
func New(rtc RTC, opts Options) *Clock {
	opts.Sync = opts.Sync.withDefaults()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Clock{
		rtc:     rtc,
		opts:    opts,
		log:     opts.Logger.With("component", "clock"),
		changed: true,
		state:   types.SyncIdle,
		last:    types.SyncStatus{State: types.SyncIdle},
	}
}

// Poll reads the RTC time. When hour or minute differ from the stored value
// the full date is re-read and the changed flag is set. Seconds alone never
// mark the clock dirty.
func (c *Clock) Poll() {
	t, err := c.rtc.ReadTime()
	if err != nil {
		c.log.Debug("rtc read time failed", "err", err)
		return
	}
	if c.read && t.SameMinute(c.cur.Time) {
		return
	}
	c.read = true
	c.changed = true
	c.cur.Time = t

	d, err := c.rtc.ReadDate()
	if err != nil {
		c.log.Warn("rtc read date failed, keeping previous date", "err", err)
		return
	}
	c.cur.Date = d
}

// Current returns the stored date/time.
func (c *Clock) Current() types.DateTime { return c.cur }

// Changed reports whether hour or minute moved since the last ClearChanged.
func (c *Clock) Changed() bool { return c.changed }

func (c *Clock) ClearChanged() { c.changed = false }

// State is the current synchronisation state.
func (c *Clock) State() types.SyncState { return c.state }

// LastStatus is the terminal status of the most recent sync attempt.
func (c *Clock) LastStatus() types.SyncStatus { return c.last }

// Sync runs one synchronisation attempt to completion:
// Idle -> Syncing -> (Synced | SyncFailed) -> Idle.
// The stored date/time is never modified here; the next Poll picks up the
// value written to the RTC.
func (c *Clock) Sync(ctx context.Context) error {
	if c.state != types.SyncIdle {
		return errcode.SyncBusy
	}
	c.transition(types.SyncSyncing, nil)
	c.log.Info("time sync started")

	err := c.runSync(ctx)
	if err != nil {
		c.log.Warn("time sync failed", "err", err)
		c.transition(types.SyncFailed, err)
	} else {
		c.log.Info("time sync succeeded")
		c.transition(types.SyncSynced, nil)
	}
	c.transition(types.SyncIdle, nil)
	return err
}

func (c *Clock) transition(to types.SyncState, err error) {
	c.state = to
	st := types.SyncStatus{State: to, At: c.opts.Now()}
	if err != nil {
		st.Error = errorCode(err)
	}
	if to == types.SyncSynced || to == types.SyncFailed {
		c.last = st
	}
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(st)
	}
}
