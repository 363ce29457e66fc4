package heartbeat

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"envpanel-go/bus"
	"envpanel-go/types"
)

func nextHealth(t *testing.T, sub *bus.Subscription) types.StationHealth {
	t.Helper()
	select {
	case m := <-sub.Channel():
		if !m.Retained {
			t.Fatal("health should be retained")
		}
		return m.Payload.(types.StationHealth)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for health")
		return types.StationHealth{}
	}
}

func TestHeartbeatTracksPanelState(t *testing.T) {
	b := bus.NewBus(8)
	obs := b.NewConnection("obs").Subscribe(TopicHealth)
	panel := b.NewConnection("panel")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &Service{StationID: "home", Interval: time.Hour, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	s.Start(ctx, b.NewConnection("heartbeat"))

	// The subscription replays retained state; publish after a short wait so
	// the loop is already subscribed either way.
	time.Sleep(10 * time.Millisecond)
	panel.Publish(panel.NewMessage(topicPanelState, "running", true))
	h := nextHealth(t, obs)
	if h.StationID != "home" || !h.Healthy || h.State != "running" {
		t.Fatalf("health = %+v", h)
	}

	panel.Publish(panel.NewMessage(topicPanelState, "halted", true))
	if h = nextHealth(t, obs); h.Healthy || h.State != "halted" {
		t.Fatalf("health after halt = %+v", h)
	}
}

func TestHeartbeatTicks(t *testing.T) {
	b := bus.NewBus(8)
	obs := b.NewConnection("obs").Subscribe(TopicHealth)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &Service{StationID: "desk", Interval: 5 * time.Millisecond, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	s.Start(ctx, b.NewConnection("heartbeat"))

	h := nextHealth(t, obs)
	if h.State != "unknown" || !h.Healthy {
		t.Fatalf("first beat = %+v", h)
	}
}
