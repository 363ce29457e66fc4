// Package mqtt is the bridge sink that publishes to an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"envpanel-go/errcode"
	"envpanel-go/services/bridge"
	"envpanel-go/services/config"
)

const (
	connectPoll    = 200 * time.Millisecond
	publishTimeout = 5 * time.Second
)

type Client struct {
	client    mqtt.Client
	cfg       config.MQTT
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
}

// NewClient builds a paho client that retries and reconnects on its own.
func NewClient(cfg config.MQTT, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cfg: cfg, logger: logger.With("component", "mqtt")}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		c.logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		c.logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c
}

func newWithClient(cl mqtt.Client, cfg config.MQTT, logger *slog.Logger) *Client {
	return &Client{client: cl, cfg: cfg, logger: logger}
}

// Prefix is the remote topic prefix for this station, "stations/<id>".
func Prefix(cfg config.MQTT) string {
	p := cfg.TopicPrefix
	if p == "" {
		p = "stations"
	}
	return p + "/" + cfg.StationID
}

// Factory registers as the bridge's "mqtt" transport.
func Factory(cfg config.MQTT, logger *slog.Logger) bridge.SinkFactory {
	return func(bridge.Config) (bridge.Sink, error) {
		return NewClient(cfg, logger), nil
	}
}

// Open waits for the first connection, honouring ctx.
func (c *Client) Open(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	token := c.client.Connect()
	for {
		if token.WaitTimeout(connectPoll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			c.setConnected(true)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Send publishes payload with the configured QoS.
func (c *Client) Send(ctx context.Context, topic string, payload []byte, retained bool) error {
	if !c.IsConnected() {
		return errcode.NotConnected
	}
	token := c.client.Publish(topic, c.cfg.QoS, retained, payload)

	wait := publishTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < wait {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return errcode.Wrap(errcode.Timeout, "mqtt.publish", fmt.Errorf("topic %s", topic))
	}
	if err := token.Error(); err != nil {
		c.logger.Error("publish failed", "topic", topic, "error", err)
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "retained", retained, "bytes", len(payload))
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Close disconnects; a later Open reconnects.
func (c *Client) Close() error {
	c.client.Disconnect(250)
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
	return nil
}

func (c *Client) String() string { return fmt.Sprintf("mqtt(%s:%d)", c.cfg.Broker, c.cfg.Port) }

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
