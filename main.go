//go:build !rp2040 && !rp2350

// Command envpanel runs the panel on a host: a console display, keyboard
// buttons, a simulated RTC and either simulated or Linux BMx280 sensors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"envpanel-go/bus"
	"envpanel-go/errcode"
	"envpanel-go/platform"
	"envpanel-go/services/bridge"
	"envpanel-go/services/config"
	"envpanel-go/services/heartbeat"
	"envpanel-go/services/logging"
	"envpanel-go/services/mqtt"
	"envpanel-go/services/netclock"
	"envpanel-go/services/panel"
	"envpanel-go/services/panel/clock"
	"envpanel-go/services/panel/env"
	"envpanel-go/services/panel/input"
	"envpanel-go/services/panel/refresh"
)

var version = "dev"

// Simulated battery: full to empty over two hours of 500 ms ticks.
const (
	simBatteryFull  = 853
	simBatteryEmpty = 731
	simBatterySteps = 14400
)

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	level, _ := config.ParseLogLevel(cfg.App.LogLevel)
	log := logging.New(os.Stderr, logging.Options{Env: cfg.App.Env, Level: level, App: "envpanel", Version: version})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("envpanel stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	b := bus.NewBus(16)
	config.Publish(b.NewConnection("config"), cfg)

	loc := cfg.Sync.Location()
	rtc, err := platform.NewRTC(platform.NewSimRTCBus(cfg.RTC.Address, loc, nil), cfg.RTC.Address, log)
	if err != nil {
		return err
	}

	sensors := (&platform.SimSensors{}).Sensors()
	if cfg.Sensors.Source == "bme280" {
		dev, err := platform.OpenBME280(cfg.Sensors.BMP280Address)
		if err != nil {
			log.Warn("sensor begin failed, using simulator", "sensor", "bme280", "err", err)
		} else {
			defer dev.Close()
			sensors = dev.Sensors()
		}
	}

	conn := b.NewConnection("panel")
	clk := clock.New(rtc, clock.Options{
		Link:   netclock.NewHostLink(cfg.Sync.SSID, cfg.Sync.NTPServer, log),
		Source: netclock.NewNTPSource(cfg.Sync.NTPServer),
		Sync: clock.SyncConfig{
			ConnectTimeout: cfg.Sync.ConnectTimeout,
			PollInterval:   cfg.Sync.PollInterval,
			MaxPolls:       cfg.Sync.MaxPolls,
			FetchTimeout:   cfg.Sync.FetchTimeout,
			Location:       loc,
		},
		Logger:   log,
		OnStatus: panel.StatusPublisher(conn),
	})

	locale, _ := refresh.LocaleByName(cfg.Panel.Locale)
	pad := platform.NewSimPad()
	p, err := panel.New(panel.Config{
		Tick:      cfg.Panel.Tick,
		Initial:   cfg.Panel.Initial,
		Locale:    locale,
		StationID: cfg.MQTT.StationID,
	}, panel.Deps{
		Pad: input.Pad{
			Up:   input.NewButton("up", pad.Up),
			Mid:  input.NewButton("mid", pad.Mid),
			Down: input.NewButton("down", pad.Down),
		},
		Clock: clk,
		Env:   env.NewSnapshot(sensors, log),
		Battery: env.NewBattery(&platform.SimADC{From: simBatteryFull, To: simBatteryEmpty, Steps: simBatterySteps},
			env.BatteryConfig{Scale: cfg.Battery.Scale, MinMV: cfg.Battery.MinMV, MaxMV: cfg.Battery.MaxMV}),
		Display: platform.NewConsole(os.Stdout),
		Conn:    conn,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	hb := &heartbeat.Service{StationID: cfg.MQTT.StationID, Interval: cfg.Heartbeat.Interval, Logger: log}
	hb.Start(gctx, b.NewConnection("heartbeat"))

	g.Go(func() error {
		err := p.Run(gctx)
		if errors.Is(err, errcode.Halted) {
			// Keep the last frame on screen until asked to exit.
			<-gctx.Done()
			return nil
		}
		return err
	})

	// A blocked stdin read cannot be cancelled, so the keypad is not waited on.
	go func() {
		log.Info("keys: u/k up, m/space select, d/j down, then Enter")
		if err := pad.ReadKeys(gctx, os.Stdin, 2*cfg.Panel.Tick); err != nil {
			log.Warn("keypad stopped", "err", err)
		}
	}()

	if cfg.MQTT.Enabled {
		bridge.RegisterTransport("mqtt", mqtt.Factory(cfg.MQTT, log))
		g.Go(func() error {
			return bridge.Start(gctx, b.NewConnection("bridge"), bridge.Config{
				Transport: "mqtt",
				Prefix:    mqtt.Prefix(cfg.MQTT),
			}, log)
		})
	} else {
		log.Info("mqtt disabled, telemetry stays on the local bus")
	}

	return g.Wait()
}
