// Package bridge forwards selected bus topics to an outbound sink (MQTT on
// a host, JSON lines on a serial port) and keeps the link up with backoff.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"envpanel-go/bus"
	"envpanel-go/errcode"
)

var TopicState = bus.T("bridge", "state")

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

type Config struct {
	// "uart" (provided here) or a name registered via RegisterTransport.
	Transport string
	// Prefix is prepended to every remote topic, e.g. "stations/home".
	Prefix string
	Routes []Route

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Route maps a local subscription to a remote topic suffix.
type Route struct {
	Match  bus.Topic
	Remote string
}

// DefaultRoutes forwards telemetry, the retained sync status and station
// health.
var DefaultRoutes = []Route{
	{Match: bus.T("telemetry", "env"), Remote: "telemetry"},
	{Match: bus.T("clock", "sync"), Remote: "sync"},
	{Match: bus.T("system", "health"), Remote: "health"},
}

func (c Config) remoteTopic(r Route) string {
	if c.Prefix == "" {
		return r.Remote
	}
	return strings.TrimSuffix(c.Prefix, "/") + "/" + r.Remote
}

// -----------------------------------------------------------------------------
// Sinks and the transport registry
// -----------------------------------------------------------------------------

// Sink is one outbound link.
type Sink interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, topic string, payload []byte, retained bool) error
	Close() error
	String() string
}

type SinkFactory func(Config) (Sink, error)

var (
	regMu     sync.RWMutex
	registry  = map[string]SinkFactory{}
	errNoDial = errors.New("UARTDial not set")
)

// RegisterTransport adds a sink factory under name (eg. "mqtt").
func RegisterTransport(name string, f SinkFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newSink(cfg Config) (Sink, error) {
	regMu.RLock()
	f, ok := registry[cfg.Transport]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Transport {
	case "uart":
		return &uartSink{}, nil
	default:
		return nil, errcode.Wrap(errcode.Unsupported, "bridge.transport", fmt.Errorf("unknown transport type: %q", cfg.Transport))
	}
}

// UARTDial is injected by platform code and opens the serial port.
var UARTDial func(ctx context.Context) (io.WriteCloser, error)

// uartSink writes one JSON object per line.
type uartSink struct {
	w io.WriteCloser
}

type line struct {
	Topic    string          `json:"topic"`
	Retained bool            `json:"retained,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

func (u *uartSink) Open(ctx context.Context) error {
	if UARTDial == nil {
		return errNoDial
	}
	w, err := UARTDial(ctx)
	if err != nil {
		return err
	}
	u.w = w
	return nil
}

func (u *uartSink) Send(_ context.Context, topic string, payload []byte, retained bool) error {
	if u.w == nil {
		return errcode.NotConnected
	}
	b, err := json.Marshal(line{Topic: topic, Retained: retained, Payload: payload})
	if err != nil {
		return err
	}
	_, err = u.w.Write(append(b, '\n'))
	return err
}

func (u *uartSink) Close() error {
	if u.w == nil {
		return nil
	}
	err := u.w.Close()
	u.w = nil
	return err
}

func (u *uartSink) String() string { return "uart" }

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn *bus.Connection
	cfg  Config
	log  *slog.Logger
	in   chan forward
}

type forward struct {
	route Route
	msg   *bus.Message
}

// Start runs the bridge until ctx is cancelled. It returns an error only when
// the transport cannot be constructed.
func Start(ctx context.Context, conn *bus.Connection, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes
	}
	s := &Service{conn: conn, cfg: cfg, log: log.With("component", "bridge")}
	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) error {
	sink, err := newSink(s.cfg)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return err
	}
	s.publishState("idle", "starting", nil)

	s.in = make(chan forward)
	var wg sync.WaitGroup
	for _, r := range s.cfg.Routes {
		sub := s.conn.Subscribe(r.Match)
		defer s.conn.Unsubscribe(sub)
		wg.Add(1)
		go func(r Route, sub *bus.Subscription) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-sub.Channel():
					if !ok {
						return
					}
					select {
					case s.in <- forward{route: r, msg: m}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(r, sub)
	}
	defer wg.Wait()

	backoff := backoffSeq(s.cfg.MinBackoff, s.cfg.MaxBackoff)
	var pending *forward
	for {
		if err := sink.Open(ctx); err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}
		s.publishState("up", "link_established", nil)
		s.log.Info("link up", "sink", sink.String())

		err := s.pump(ctx, sink, &pending)
		_ = sink.Close()
		if err == nil {
			s.publishState("idle", "stopped", nil)
			return nil
		}
		delay := backoff()
		s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

// pump forwards messages until ctx ends (nil) or a send fails. The message
// that failed is left in pending for the next link.
func (s *Service) pump(ctx context.Context, sink Sink, pending **forward) error {
	for {
		if *pending == nil {
			select {
			case <-ctx.Done():
				return nil
			case f := <-s.in:
				*pending = &f
			}
		}
		f := *pending
		body, err := encode(f.msg.Payload)
		if err != nil {
			s.log.Warn("dropping unencodable message", "topic", f.msg.Topic.String(), "err", err)
			*pending = nil
			continue
		}
		topic := s.cfg.remoteTopic(f.route)
		if err := sink.Send(ctx, topic, body, f.msg.Retained); err != nil {
			return err
		}
		s.log.Debug("forwarded", "local", f.msg.Topic.String(), "remote", topic)
		*pending = nil
	}
}

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func encode(p any) ([]byte, error) {
	switch v := p.(type) {
	case []byte:
		if json.Valid(v) {
			return v, nil
		}
		return json.Marshal(string(v))
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func (s *Service) publishState(level, status string, err error) {
	payload := map[string]any{
		"level":  level,  // "up", "degraded", "error", "idle"
		"status": status, // short machine string
		"ts_ms":  time.Now().UnixMilli(),
	}
	if err != nil {
		payload["error"] = err.Error()
		s.log.Warn("bridge "+status, "err", err)
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, payload, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 250 * time.Millisecond
	}
	if max < min {
		max = 5 * time.Second
		if max < min {
			max = min
		}
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
