// Package config loads panel configuration: embedded defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"envpanel-go/bus"
	"envpanel-go/errcode"
)

//go:embed defaults.yaml
var defaultYAML []byte

const configPrefix = "config"

type Config struct {
	App     App     `yaml:"app"`
	Panel   Panel   `yaml:"panel"`
	Buttons Buttons `yaml:"buttons"`
	Sensors Sensors `yaml:"sensors"`
	RTC     RTC     `yaml:"rtc"`
	Battery Battery `yaml:"battery"`
	Sync    Sync    `yaml:"sync"`
	MQTT    MQTT    `yaml:"mqtt"`

	Heartbeat Heartbeat `yaml:"heartbeat"`
}

type App struct {
	Env      string `yaml:"env"` // dev | prod
	LogLevel string `yaml:"log_level"`
}

type Panel struct {
	Tick    time.Duration `yaml:"tick"`
	Locale  string        `yaml:"locale"`
	Initial int           `yaml:"initial"`
}

// Buttons are GPIO numbers of the up, mid and down keys.
type Buttons struct {
	Up   int `yaml:"up"`
	Mid  int `yaml:"mid"`
	Down int `yaml:"down"`
}

type Sensors struct {
	Source        string `yaml:"source"` // sim | bme280
	BMP280Address uint16 `yaml:"bmp280_address"`
	SHT3xAddress  uint16 `yaml:"sht3x_address"`
}

type RTC struct {
	Bus     int    `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

type Battery struct {
	Scale float64 `yaml:"scale"`
	MinMV uint32  `yaml:"min_mv"`
	MaxMV uint32  `yaml:"max_mv"`
}

type Sync struct {
	SSID           string        `yaml:"ssid"`
	Password       string        `yaml:"password"`
	NTPServer      string        `yaml:"ntp_server"`
	UTCOffset      time.Duration `yaml:"utc_offset"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxPolls       int           `yaml:"max_polls"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

// Location is the fixed zone the RTC is kept in.
func (s Sync) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(s.UTCOffset.Hours())), int(s.UTCOffset.Seconds()))
}

type MQTT struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	StationID   string `yaml:"station_id"`
	QoS         byte   `yaml:"qos"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type Heartbeat struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the embedded defaults.
func Default() Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic("config: embedded defaults: " + err.Error())
	}
	return c
}

// Load reads defaults, overlays path when non-empty, applies environment
// overrides and validates.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errcode.Wrap(errcode.InvalidConfig, "config.read", err)
		}
		if err := Overlay(&c, raw); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&c, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Overlay decodes raw over c; keys absent from raw keep their value.
func Overlay(c *Config, raw []byte) error {
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "config.parse", err)
	}
	return nil
}

// ApplyEnv applies the supported environment overrides.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("APP_ENV", &c.App.Env)
	str("LOG_LEVEL", &c.App.LogLevel)
	str("MQTT_BROKER", &c.MQTT.Broker)
	str("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("STATION_ID", &c.MQTT.StationID)
	str("NTP_SERVER", &c.Sync.NTPServer)
	str("WIFI_SSID", &c.Sync.SSID)
	str("WIFI_PASSWORD", &c.Sync.Password)

	if v, ok := lookup("MQTT_PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errcode.Wrap(errcode.InvalidConfig, "config.env", fmt.Errorf("invalid MQTT_PORT %q: %w", v, err))
		}
		c.MQTT.Port = port
	}
	return nil
}

// Validate rejects values the panel cannot run with.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return errcode.Wrap(errcode.InvalidConfig, "config.validate", fmt.Errorf(format, args...))
	}
	switch c.App.Env {
	case "dev", "prod":
	default:
		return bad("invalid app.env %q (allowed: dev, prod)", c.App.Env)
	}
	if _, err := ParseLogLevel(c.App.LogLevel); err != nil {
		return bad("%v", err)
	}
	if c.Panel.Tick <= 0 {
		return bad("panel.tick must be positive, got %v", c.Panel.Tick)
	}
	switch c.Panel.Locale {
	case "ja", "en":
	default:
		return bad("unknown panel.locale %q", c.Panel.Locale)
	}
	if c.Panel.Initial < -1 || c.Panel.Initial > 2 {
		return bad("panel.initial %d out of range", c.Panel.Initial)
	}
	switch c.Sensors.Source {
	case "sim", "bme280":
	default:
		return bad("unknown sensors.source %q", c.Sensors.Source)
	}
	if c.Battery.Scale <= 0 {
		return bad("battery.scale must be positive")
	}
	if c.Battery.MinMV >= c.Battery.MaxMV {
		return bad("battery range inverted: %d..%d mV", c.Battery.MinMV, c.Battery.MaxMV)
	}
	if c.Sync.MaxPolls <= 0 || c.Sync.PollInterval <= 0 {
		return bad("sync polling must be positive")
	}
	if c.Sync.ConnectTimeout <= 0 || c.Sync.FetchTimeout <= 0 {
		return bad("sync timeouts must be positive")
	}
	if c.Heartbeat.Interval <= 0 {
		return bad("heartbeat.interval must be positive")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" || c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			return bad("invalid mqtt broker %q:%d", c.MQTT.Broker, c.MQTT.Port)
		}
		if c.MQTT.QoS > 2 {
			return bad("mqtt.qos %d out of range", c.MQTT.QoS)
		}
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (allowed: debug, info, warn, error)", s)
	}
}

// Publish puts every section on the bus as a retained config/<section>
// message so services can read their settings from the bus.
func Publish(conn *bus.Connection, c Config) {
	sections := map[string]any{
		"app":     c.App,
		"panel":   c.Panel,
		"buttons": c.Buttons,
		"sensors": c.Sensors,
		"rtc":     c.RTC,
		"battery": c.Battery,
		"sync":    redacted(c.Sync),
		"mqtt":    c.MQTT,

		"heartbeat": c.Heartbeat,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
}

func redacted(s Sync) Sync {
	if s.Password != "" {
		s.Password = "***"
	}
	return s
}
