package clock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"envpanel-go/errcode"
	"envpanel-go/types"
)

type fakeRTC struct {
	times     []types.TimeOfDay
	date      types.Date
	readErr   error
	writeErr  error
	dateReads int
	set       *types.DateTime
}

func (f *fakeRTC) ReadTime() (types.TimeOfDay, error) {
	if f.readErr != nil {
		return types.TimeOfDay{}, f.readErr
	}
	t := f.times[0]
	if len(f.times) > 1 {
		f.times = f.times[1:]
	}
	return t, nil
}

func (f *fakeRTC) ReadDate() (types.Date, error) {
	f.dateReads++
	return f.date, nil
}

func (f *fakeRTC) SetTime(t types.TimeOfDay) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.set == nil {
		f.set = &types.DateTime{}
	}
	f.set.Time = t
	f.times = []types.TimeOfDay{t}
	return nil
}

func (f *fakeRTC) SetDate(d types.Date) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.set.Date = d
	f.date = d
	return nil
}

type fakeLink struct {
	upAfter     int // polls until Connected reports true; <0 never
	connectErr  error
	polls       int
	disconnects int
}

func (l *fakeLink) Connect(context.Context) error { return l.connectErr }
func (l *fakeLink) Connected(context.Context) bool {
	l.polls++
	return l.upAfter >= 0 && l.polls > l.upAfter
}
func (l *fakeLink) Disconnect() error { l.disconnects++; return nil }

type fakeSource struct {
	t   time.Time
	err error
}

func (s fakeSource) Now(context.Context) (time.Time, error) { return s.t, s.err }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func hm(h, m, s int) types.TimeOfDay { return types.TimeOfDay{Hour: h, Minute: m, Second: s} }

var may1 = types.Date{Year: 2024, Month: 5, Day: 1, Weekday: 3}

func newTestClock(rtc *fakeRTC, link Link, src TimeSource, states *[]types.SyncState) *Clock {
	return New(rtc, Options{
		Link:   link,
		Source: src,
		Sync: SyncConfig{
			ConnectTimeout: time.Second,
			PollInterval:   time.Millisecond,
			MaxPolls:       3,
			FetchTimeout:   time.Second,
			Location:       time.FixedZone("JST", 9*3600),
		},
		Logger: quietLogger(),
		OnStatus: func(st types.SyncStatus) {
			if states != nil {
				*states = append(*states, st.State)
			}
		},
	})
}

func TestChangedSeededTrue(t *testing.T) {
	c := newTestClock(&fakeRTC{times: []types.TimeOfDay{hm(0, 0, 0)}}, nil, nil, nil)
	if !c.Changed() {
		t.Fatal("time must start dirty")
	}
}

func TestFirstPollAlwaysRecords(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(0, 0, 5)}, date: may1}
	c := newTestClock(rtc, nil, nil, nil)
	c.ClearChanged()
	c.Poll()
	if !c.Changed() || rtc.dateReads != 1 {
		t.Fatalf("first poll: changed=%v dateReads=%d", c.Changed(), rtc.dateReads)
	}
	if c.Current().Date != may1 {
		t.Fatalf("date = %+v", c.Current().Date)
	}
}

func TestMinuteChangeSetsFlag(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0), hm(8, 31, 0)}, date: may1}
	c := newTestClock(rtc, nil, nil, nil)

	c.Poll()
	c.ClearChanged()
	c.Poll()

	if !c.Changed() {
		t.Fatal("minute change should set the flag")
	}
	if got := c.Current().Time; got.Hour != 8 || got.Minute != 31 {
		t.Fatalf("current = %+v", got)
	}
	if rtc.dateReads != 2 {
		t.Fatalf("date re-read %d times, want 2", rtc.dateReads)
	}
}

func TestSecondsAloneDoNotFlag(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0), hm(8, 30, 1), hm(8, 30, 59)}, date: may1}
	c := newTestClock(rtc, nil, nil, nil)
	c.Poll()
	c.ClearChanged()
	c.Poll()
	c.Poll()
	if c.Changed() {
		t.Fatal("identical hour/minute must not set the flag")
	}
	if rtc.dateReads != 1 {
		t.Fatalf("date re-read %d times, want 1", rtc.dateReads)
	}
}

func TestHourChangeSetsFlag(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 59, 59), hm(9, 59, 59)}, date: may1}
	c := newTestClock(rtc, nil, nil, nil)
	c.Poll()
	c.ClearChanged()
	c.Poll()
	if !c.Changed() {
		t.Fatal("hour change with same minute should set the flag")
	}
}

func TestReadErrorKeepsState(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0)}, date: may1}
	c := newTestClock(rtc, nil, nil, nil)
	c.Poll()
	c.ClearChanged()
	rtc.readErr = errors.New("nack")
	c.Poll()
	if c.Changed() || c.Current().Time != hm(8, 30, 0) {
		t.Fatalf("read error changed state: %+v changed=%v", c.Current(), c.Changed())
	}
}

func TestSyncNoNetwork(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0)}, date: may1}
	link := &fakeLink{upAfter: -1}
	var states []types.SyncState
	c := newTestClock(rtc, link, fakeSource{t: time.Now()}, &states)
	c.Poll()
	before := c.Current()

	err := c.Sync(context.Background())
	if !errors.Is(err, errcode.NoNetwork) {
		t.Fatalf("err = %v, want no_network", err)
	}
	want := []types.SyncState{types.SyncSyncing, types.SyncFailed, types.SyncIdle}
	if !equalStates(states, want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	if c.Current() != before {
		t.Fatalf("stored time changed: %+v -> %+v", before, c.Current())
	}
	if rtc.set != nil {
		t.Fatal("rtc must not be written")
	}
	if link.polls != 3 {
		t.Fatalf("polls = %d, want bounded at 3", link.polls)
	}
	if link.disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", link.disconnects)
	}
	if st := c.LastStatus(); st.State != types.SyncFailed || st.Error != string(errcode.NoNetwork) {
		t.Fatalf("last status = %+v", st)
	}
	if c.State() != types.SyncIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
}

func TestSyncWithoutCollaborators(t *testing.T) {
	c := newTestClock(&fakeRTC{times: []types.TimeOfDay{hm(0, 0, 0)}}, nil, nil, nil)
	if err := c.Sync(context.Background()); !errors.Is(err, errcode.NoNetwork) {
		t.Fatalf("err = %v", err)
	}
}

func TestSyncSuccessWritesLocalTime(t *testing.T) {
	rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0)}, date: may1}
	link := &fakeLink{upAfter: 1}
	var states []types.SyncState
	ref := time.Date(2024, 12, 31, 15, 4, 5, 0, time.UTC) // 2025-01-01 00:04:05 JST
	c := newTestClock(rtc, link, fakeSource{t: ref}, &states)
	c.Poll()
	before := c.Current()

	if err := c.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []types.SyncState{types.SyncSyncing, types.SyncSynced, types.SyncIdle}
	if !equalStates(states, want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	got := *rtc.set
	wantDT := types.DateTime{
		Date: types.Date{Year: 2025, Month: 1, Day: 1, Weekday: 3},
		Time: hm(0, 4, 5),
	}
	if got != wantDT {
		t.Fatalf("rtc set = %+v, want %+v", got, wantDT)
	}
	if c.Current() != before {
		t.Fatal("Sync must leave the stored value to the next Poll")
	}
	if link.disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", link.disconnects)
	}

	c.ClearChanged()
	c.Poll()
	if !c.Changed() || c.Current() != wantDT {
		t.Fatalf("after poll: %+v changed=%v", c.Current(), c.Changed())
	}
}

func TestSyncFetchAndWriteFailures(t *testing.T) {
	cases := []struct {
		name     string
		src      fakeSource
		writeErr error
		want     errcode.Code
	}{
		{"no time response", fakeSource{err: errors.New("i/o timeout")}, nil, errcode.NoTimeResponse},
		{"rtc rejects write", fakeSource{t: time.Now()}, errors.New("nack"), errcode.RTCWriteFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rtc := &fakeRTC{times: []types.TimeOfDay{hm(8, 30, 0)}, date: may1, writeErr: tc.writeErr}
			link := &fakeLink{}
			var states []types.SyncState
			c := newTestClock(rtc, link, tc.src, &states)
			c.Poll()
			before := c.Current()

			err := c.Sync(context.Background())
			if errcode.Of(err) != tc.want {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
			if states[1] != types.SyncFailed || c.State() != types.SyncIdle {
				t.Fatalf("states = %v", states)
			}
			if c.Current() != before {
				t.Fatal("stored time changed on failure")
			}
			if link.disconnects != 1 {
				t.Fatalf("link must always be released, disconnects=%d", link.disconnects)
			}
		})
	}
}

func equalStates(a, b []types.SyncState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
