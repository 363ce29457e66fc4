// Package netclock provides the network side of clock synchronisation on a
// host: a link that is up when the time server resolves, and an NTP source.
package netclock

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"envpanel-go/errcode"
)

// Resolver is the subset of net.Resolver the link uses.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// HostLink treats the host's network as always joinable and reports it
// connected once the probe host resolves.
type HostLink struct {
	SSID     string // logged only; the host OS owns the interface
	Probe    string
	Resolver Resolver
	Logger   *slog.Logger

	mu     sync.Mutex
	joined bool
}

func NewHostLink(ssid, probe string, log *slog.Logger) *HostLink {
	if log == nil {
		log = slog.Default()
	}
	return &HostLink{SSID: ssid, Probe: probe, Resolver: net.DefaultResolver, Logger: log.With("component", "netclock")}
}

func (l *HostLink) Connect(ctx context.Context) error {
	if l.Probe == "" {
		return errcode.Wrap(errcode.InvalidConfig, "link.connect", errcode.InvalidParams)
	}
	l.mu.Lock()
	l.joined = true
	l.mu.Unlock()
	l.Logger.Info("network join requested", "ssid", l.SSID)
	return ctx.Err()
}

// Connected polls once; it never blocks beyond ctx.
func (l *HostLink) Connected(ctx context.Context) bool {
	l.mu.Lock()
	joined := l.joined
	l.mu.Unlock()
	if !joined {
		return false
	}
	addrs, err := l.Resolver.LookupHost(ctx, l.Probe)
	if err != nil {
		l.Logger.Debug("probe lookup failed", "host", l.Probe, "err", err)
		return false
	}
	return len(addrs) > 0
}

func (l *HostLink) Disconnect() error {
	l.mu.Lock()
	l.joined = false
	l.mu.Unlock()
	l.Logger.Debug("network released")
	return nil
}
