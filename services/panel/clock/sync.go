package clock

import (
	"context"
	"time"

	"envpanel-go/errcode"
	"envpanel-go/types"
)

// Link is network connectivity (Wi-Fi association or similar).
type Link interface {
	// Connect starts acquiring connectivity; it must not block for long.
	Connect(ctx context.Context) error
	// Connected polls the link state.
	Connected(ctx context.Context) bool
	// Disconnect releases connectivity.
	Disconnect() error
}

// TimeSource fetches a reference time from a network time service.
type TimeSource interface {
	Now(ctx context.Context) (time.Time, error)
}

// SyncConfig bounds each sub-step of a synchronisation attempt.
type SyncConfig struct {
	ConnectTimeout time.Duration // total budget for acquiring the link
	PollInterval   time.Duration // between link state polls
	MaxPolls       int           // link state polls before giving up
	FetchTimeout   time.Duration // time service budget
	Location       *time.Location
}

func (s SyncConfig) withDefaults() SyncConfig {
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = 15 * time.Second
	}
	if s.PollInterval <= 0 {
		s.PollInterval = 500 * time.Millisecond
	}
	if s.MaxPolls <= 0 {
		s.MaxPolls = 30
	}
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = 5 * time.Second
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	return s
}

func (c *Clock) runSync(ctx context.Context) error {
	link, src := c.opts.Link, c.opts.Source
	if link == nil || src == nil {
		return errcode.Wrap(errcode.NoNetwork, "sync.connect", errcode.Unsupported)
	}

	if err := c.acquire(ctx, link); err != nil {
		// Release whatever partial association exists.
		if derr := link.Disconnect(); derr != nil {
			c.log.Debug("link release failed", "err", derr)
		}
		return err
	}
	defer func() {
		if err := link.Disconnect(); err != nil {
			c.log.Warn("link release failed", "err", err)
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, c.opts.Sync.FetchTimeout)
	ref, err := src.Now(fctx)
	cancel()
	if err != nil {
		return errcode.Wrap(errcode.NoTimeResponse, "sync.fetch", err)
	}

	local := ref.In(c.opts.Sync.Location)
	dt := types.DateTimeOf(local)
	if err := c.rtc.SetTime(dt.Time); err != nil {
		return errcode.Wrap(errcode.RTCWriteFailed, "sync.set_time", err)
	}
	if err := c.rtc.SetDate(dt.Date); err != nil {
		return errcode.Wrap(errcode.RTCWriteFailed, "sync.set_date", err)
	}
	c.log.Info("rtc set",
		"date", local.Format("2006-01-02"),
		"time", local.Format("15:04:05"),
	)
	return nil
}

// acquire connects and polls the link until it is up, the poll budget is
// spent or the connect timeout elapses.
func (c *Clock) acquire(ctx context.Context, link Link) error {
	cctx, cancel := context.WithTimeout(ctx, c.opts.Sync.ConnectTimeout)
	defer cancel()

	if err := link.Connect(cctx); err != nil {
		return errcode.Wrap(errcode.NoNetwork, "sync.connect", err)
	}

	timer := time.NewTimer(c.opts.Sync.PollInterval)
	defer timer.Stop()
	for i := 0; i < c.opts.Sync.MaxPolls; i++ {
		if link.Connected(cctx) {
			c.log.Debug("link up", "polls", i+1)
			return nil
		}
		timer.Reset(c.opts.Sync.PollInterval)
		select {
		case <-cctx.Done():
			return errcode.Wrap(errcode.NoNetwork, "sync.connect", errcode.Timeout)
		case <-timer.C:
		}
	}
	return errcode.Wrap(errcode.NoNetwork, "sync.connect", errcode.Timeout)
}

func errorCode(err error) string { return string(errcode.Of(err)) }
