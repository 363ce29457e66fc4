// Package panel runs the fixed tick loop of the display: buttons, command
// selection, environment, clock, then a gated redraw.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"envpanel-go/bus"
	"envpanel-go/errcode"
	"envpanel-go/services/panel/clock"
	"envpanel-go/services/panel/command"
	"envpanel-go/services/panel/env"
	"envpanel-go/services/panel/input"
	"envpanel-go/services/panel/refresh"
	"envpanel-go/types"
)

var (
	TopicTelemetry = bus.T("telemetry", "env")
	TopicSync      = bus.T("clock", "sync")
	TopicFrame     = bus.T("panel", "frame")
	TopicState     = bus.T("panel", "state")
)

// State of the driver.
type State string

const (
	StateReady   State = "ready"
	StateRunning State = "running"
	StateHalted  State = "halted" // terminal
)

// Config carries the driver's own knobs.
type Config struct {
	Tick      time.Duration
	Initial   int // -1 selects the middle command
	Locale    refresh.Locale
	StationID string
}

// Deps are the peripherals and collaborators the driver owns for its lifetime.
type Deps struct {
	Pad     input.Pad
	Clock   *clock.Clock
	Env     *env.Snapshot
	Battery *env.Battery
	Display refresh.Display
	Conn    *bus.Connection // optional; nil disables publishing
	Logger  *slog.Logger
	Now     func() time.Time
}

// Panel is the main-loop driver.
type Panel struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	reg  *command.Registry
	gate *refresh.Gate

	state State
	fault error
	seq   int
}

// New builds the command table (sync, no-op, send) and the refresh gate.
func New(cfg Config, deps Deps) (*Panel, error) {
	if deps.Clock == nil || deps.Env == nil || deps.Display == nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "panel.new", fmt.Errorf("clock, env and display are required"))
	}
	if deps.Pad.Up == nil || deps.Pad.Mid == nil || deps.Pad.Down == nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "panel.new", fmt.Errorf("three buttons are required"))
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 500 * time.Millisecond
	}
	if cfg.Locale.Name == "" {
		cfg.Locale = refresh.Japanese
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	p := &Panel{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Logger.With("component", "panel"),
		state: StateReady,
	}

	reg, err := command.NewRegistry([]command.Command{
		{Caption: cfg.Locale.SyncCaption, Run: p.syncTime},
		{Caption: cfg.Locale.NoopCaption, Run: p.noop},
		{Caption: cfg.Locale.SendCaption, Run: p.sendData},
	}, cfg.Initial)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "panel.new", err)
	}
	p.reg = reg
	p.gate = refresh.NewGate(deps.Display, cfg.Locale, deps.Clock, reg, deps.Battery)
	return p, nil
}

func (p *Panel) State() State                { return p.state }
func (p *Panel) Fault() error                { return p.fault }
func (p *Panel) Registry() *command.Registry { return p.reg }

// Tick runs one pass of the loop body. A panic anywhere in the body moves the
// driver to StateHalted; every later Tick is a no-op returning the fault.
func (p *Panel) Tick(ctx context.Context) (err error) {
	if p.state == StateHalted {
		return p.fault
	}
	defer func() {
		if r := recover(); r != nil {
			err = p.halt(r)
		}
	}()

	pad := p.deps.Pad
	pad.Update()
	p.reg.Dispatch(ctx, pad.Up.WasPressed(), pad.Down.WasPressed(), pad.Mid.WasPressed())

	p.deps.Env.Refresh()
	p.deps.Clock.Poll()

	if f, drawn := p.gate.Refresh(p.deps.Env.Reading()); drawn {
		p.publish(TopicFrame, f, true)
	}
	return nil
}

// Run ticks until ctx is done or the driver halts. A fixed delay follows
// every tick.
func (p *Panel) Run(ctx context.Context) error {
	if p.state == StateHalted {
		return p.fault
	}
	p.setState(StateRunning)
	p.log.Info("setup done", "tick", p.cfg.Tick, "locale", p.cfg.Locale.Name, "selected", p.reg.SelectedCaption())

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			p.setState(StateReady)
			return ctx.Err()
		case <-timer.C:
		}
		if err := p.Tick(ctx); err != nil {
			return err
		}
		timer.Reset(p.cfg.Tick)
	}
}

func (p *Panel) halt(r any) error {
	p.fault = errcode.Wrap(errcode.Halted, "panel.tick", fmt.Errorf("panic: %v", r))
	p.setState(StateHalted)
	p.log.Error("unrecoverable fault, loop halted", "err", p.fault)
	return p.fault
}

func (p *Panel) setState(s State) {
	p.state = s
	p.publish(TopicState, string(s), true)
}

func (p *Panel) publish(t bus.Topic, payload any, retained bool) {
	if p.deps.Conn == nil {
		return
	}
	p.deps.Conn.Publish(p.deps.Conn.NewMessage(t, payload, retained))
}

// ---- commands ----

func (p *Panel) syncTime(ctx context.Context) {
	// Failures are logged and published by the clock.
	_ = p.deps.Clock.Sync(ctx)
}

func (p *Panel) noop(context.Context) {
	p.log.Debug("no-op command")
}

func (p *Panel) sendData(context.Context) {
	r := p.deps.Env.Reading()
	p.seq++
	seq := p.seq
	tm := types.Telemetry{
		StationID:   p.cfg.StationID,
		Timestamp:   p.deps.Now().UTC(),
		Temperature: &r.TemperatureC,
		Humidity:    &r.HumidityPct,
		Pressure:    &r.PressureHPa,
		Sequence:    &seq,
	}
	if p.deps.Battery != nil {
		v := float64(p.deps.Battery.Level().MilliVolt) / 1000
		tm.Battery = &v
	}
	p.publish(TopicTelemetry, tm, false)
	p.log.Info("data sent", "seq", seq, "temperature_c", r.TemperatureC,
		"humidity_pct", r.HumidityPct, "pressure_hpa", r.PressureHPa)
}

// StatusPublisher returns a clock.Options.OnStatus hook that publishes the
// terminal outcome of each sync attempt, retained, on TopicSync.
func StatusPublisher(conn *bus.Connection) func(types.SyncStatus) {
	return func(st types.SyncStatus) {
		if st.State != types.SyncSynced && st.State != types.SyncFailed {
			return
		}
		conn.Publish(conn.NewMessage(TopicSync, st, true))
	}
}
