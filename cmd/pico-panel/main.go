//go:build rp2040 || rp2350

// Command pico-panel is the device firmware.
package main

import (
	"context"
	"io"
	"time"

	"envpanel-go/bus"
	"envpanel-go/platform"
	"envpanel-go/services/bridge"
	"envpanel-go/services/config"
	"envpanel-go/services/heartbeat"
	"envpanel-go/services/logging"
	"envpanel-go/services/panel"
	"envpanel-go/services/panel/clock"
	"envpanel-go/services/panel/env"
	"envpanel-go/services/panel/input"
	"envpanel-go/services/panel/refresh"
)

// Pico keys when the configured pins are off the RP2 range.
const (
	picoUp   = 13
	picoMid  = 14
	picoDown = 15
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func main() {
	// Allow the serial console to come up before we log.
	time.Sleep(1500 * time.Millisecond)

	console := platform.Console(115200)
	cfg := config.Default()
	level, _ := config.ParseLogLevel(cfg.App.LogLevel)
	log := logging.Serial(console, level)

	// FreeMono has no CJK glyphs.
	cfg.Panel.Locale = "en"
	if cfg.Buttons.Up > 29 || cfg.Buttons.Mid > 29 || cfg.Buttons.Down > 29 {
		cfg.Buttons = config.Buttons{Up: picoUp, Mid: picoMid, Down: picoDown}
	}

	hw, err := platform.OpenHardware(cfg, log)
	if err != nil {
		log.Error("hardware init failed", "err", err)
		park()
	}

	ctx := context.Background()
	b := bus.NewBus(8)
	conn := b.NewConnection("panel")

	// No network stack on this board: every sync reports no_network.
	clk := clock.New(hw.RTC, clock.Options{
		Sync:     clock.SyncConfig{Location: cfg.Sync.Location()},
		Logger:   log,
		OnStatus: panel.StatusPublisher(conn),
	})

	telemetry := platform.TelemetryPort(115200)
	bridge.UARTDial = func(context.Context) (io.WriteCloser, error) { return nopCloser{telemetry}, nil }
	go func() {
		_ = bridge.Start(ctx, b.NewConnection("bridge"), bridge.Config{
			Transport: "uart",
			Prefix:    cfg.MQTT.TopicPrefix + "/" + cfg.MQTT.StationID,
		}, log)
	}()

	hb := &heartbeat.Service{StationID: cfg.MQTT.StationID, Interval: cfg.Heartbeat.Interval, Logger: log}
	hb.Start(ctx, b.NewConnection("heartbeat"))

	p, err := panel.New(panel.Config{
		Tick:      cfg.Panel.Tick,
		Initial:   cfg.Panel.Initial,
		Locale:    refresh.English,
		StationID: cfg.MQTT.StationID,
	}, panel.Deps{
		Pad: input.Pad{
			Up:   input.NewButton("up", hw.Up),
			Mid:  input.NewButton("mid", hw.Mid),
			Down: input.NewButton("down", hw.Down),
		},
		Clock: clk,
		Env:   env.NewSnapshot(hw.Sensors, log),
		Battery: env.NewBattery(hw.ADC,
			env.BatteryConfig{Scale: cfg.Battery.Scale, MinMV: cfg.Battery.MinMV, MaxMV: cfg.Battery.MaxMV}),
		Display: hw.Display,
		Conn:    conn,
		Logger:  log,
	})
	if err != nil {
		log.Error("panel init failed", "err", err)
		park()
	}

	err = p.Run(ctx)
	log.Error("panel loop ended", "err", err)
	park()
}

// park idles forever; the screen keeps the last frame.
func park() {
	for {
		time.Sleep(time.Hour)
	}
}
