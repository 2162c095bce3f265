package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
	"github.com/trendwatch-io/trendwatch/internal/notify/gate"
	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

var testLogger = zerolog.Nop()

type fakeChannel struct {
	name     string
	maxBytes int
	fail     bool

	mu     sync.Mutex
	titles []string
	bodies []string
}

func (f *fakeChannel) Name() string      { return f.name }
func (f *fakeChannel) Kind() render.Kind { return render.KindNtfy }

func (f *fakeChannel) MaxBytes() int {
	if f.maxBytes == 0 {
		return 4096
	}

	return f.maxBytes
}

func (f *fakeChannel) Send(_ context.Context, title, body string) error {
	if f.fail {
		return errors.New("boom")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)

	return nil
}

func (f *fakeChannel) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.bodies...)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func sampleBundle() report.Bundle {
	return report.Bundle{
		Groups: []report.Group{{
			Word:       "AI",
			Count:      1,
			Percentage: 100,
			Items: []report.Item{{
				Title: "AI 芯片新进展", SourceName: "知乎", Ranks: []int{1}, Count: 1,
			}},
		}},
	}
}

func openGate(t *testing.T) *gate.Gate {
	t.Helper()

	return gate.New(t.TempDir(), gate.Window{}, fixedNow, &testLogger)
}

func newTestDispatcher(g *gate.Gate, channels ...Channel) *Dispatcher {
	return NewDispatcher(g, channels, 10, time.Millisecond, fixedNow, &testLogger)
}

func TestDispatchDeliversToAllChannels(t *testing.T) {
	a := &fakeChannel{name: "a"}
	b := &fakeChannel{name: "b"}

	d := newTestDispatcher(openGate(t), a, b)

	results := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)

	require.Equal(t, map[string]bool{"a": true, "b": true}, results)
	require.Len(t, a.sent(), 1)
	require.Contains(t, a.sent()[0], "AI 芯片新进展")
	require.Equal(t, []string{"当日汇总"}, a.titles)
}

func TestDispatchOneFailureDoesNotBlockOthers(t *testing.T) {
	good := &fakeChannel{name: "good"}
	bad := &fakeChannel{name: "bad", fail: true}

	d := newTestDispatcher(openGate(t), good, bad)

	results := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)

	require.Equal(t, map[string]bool{"good": true, "bad": false}, results)
	require.Len(t, good.sent(), 1)
}

func TestDispatchDeniedGateTouchesNoChannel(t *testing.T) {
	closed := gate.New(t.TempDir(), gate.Window{Enabled: true, Start: "22:00", End: "23:00"}, fixedNow, &testLogger)

	ch := &fakeChannel{name: "a"}
	d := newTestDispatcher(closed, ch)

	results := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)

	require.Empty(t, results)
	require.Empty(t, ch.sent())
}

func TestDispatchMarksPushedOncePerDay(t *testing.T) {
	dir := t.TempDir()
	window := gate.Window{Enabled: true, Start: "00:00", End: "23:59", OncePerDay: true}
	g := gate.New(dir, window, fixedNow, &testLogger)

	ch := &fakeChannel{name: "a"}
	d := newTestDispatcher(g, ch)

	first := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)
	require.Equal(t, map[string]bool{"a": true}, first)

	second := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)
	require.Empty(t, second, "the day's second dispatch is gated off")
	require.Len(t, ch.sent(), 1)
}

func TestDispatchAllFailedLeavesGateUnlatched(t *testing.T) {
	dir := t.TempDir()
	window := gate.Window{Enabled: true, Start: "00:00", End: "23:59", OncePerDay: true}
	g := gate.New(dir, window, fixedNow, &testLogger)

	d := newTestDispatcher(g, &fakeChannel{name: "bad", fail: true})

	results := d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily)
	require.Equal(t, map[string]bool{"bad": false}, results)
	require.False(t, g.HasPushedToday())
}

func TestDispatchSplitsForSmallBudget(t *testing.T) {
	bundle := report.Bundle{}
	for i := 0; i < 6; i++ {
		bundle.Groups = append(bundle.Groups, report.Group{
			Word:       "话题",
			Count:      1,
			Percentage: 16.67,
			Items: []report.Item{{
				Title: "一条足够长的新闻标题用来撑开消息体", SourceName: "知乎", Ranks: []int{1}, Count: 1,
			}},
		})
	}

	ch := &fakeChannel{name: "tiny", maxBytes: 600}
	d := newTestDispatcher(openGate(t), ch)

	results := d.Dispatch(context.Background(), bundle, feed.ModeCurrent)
	require.True(t, results["tiny"])

	sent := ch.sent()
	require.Greater(t, len(sent), 1)

	for _, msg := range sent {
		require.LessOrEqual(t, len(msg), 600)
	}
}

func TestDispatchNoChannels(t *testing.T) {
	d := newTestDispatcher(openGate(t))

	require.Empty(t, d.Dispatch(context.Background(), sampleBundle(), feed.ModeDaily))
}
