// Package heartbeat publishes a retained station health record at a fixed
// interval, tracking the panel loop state from the bus.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"envpanel-go/bus"
	"envpanel-go/types"
)

var (
	TopicHealth     = bus.T("system", "health")
	topicPanelState = bus.T("panel", "state")
)

const defaultInterval = 30 * time.Second

type Service struct {
	StationID string
	Interval  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	stateSub := conn.Subscribe(topicPanelState)
	defer conn.Unsubscribe(stateSub)

	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	state := "unknown"
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("heartbeat stopping")
			return
		case <-tick.C:
			s.publish(conn, state)
		case msg, ok := <-stateSub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(string); ok && st != state {
				state = st
				// Report transitions without waiting for the next tick.
				s.publish(conn, state)
			}
		}
	}
}

func (s *Service) publish(conn *bus.Connection, state string) {
	h := types.StationHealth{
		StationID: s.StationID,
		LastSeen:  s.Now().UTC(),
		Healthy:   state != "halted",
		State:     state,
	}
	conn.Publish(conn.NewMessage(TopicHealth, h, true))
	s.Logger.Debug("heartbeat", "state", state, "healthy", h.Healthy)
}

// Start runs the heartbeat in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.Logger = s.Logger.With("component", "heartbeat")
	if s.Now == nil {
		s.Now = time.Now
	}
	go s.serviceLoop(ctx, conn)
}
