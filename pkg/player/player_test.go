package player

import (
	"testing"
	"time"

	"github.com/user/signage/pkg/mocks"
	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/wake"
)

var testMode = ports.DisplayMode{Name: "mock", Width: 640, Height: 480, RefreshHz: 60}

func makeEntry(t *testing.T, display *mocks.DisplayDriver, due time.Time) Entry {
	t.Helper()
	buf, err := display.MakeBuffer(16, 16, 32)
	if err != nil {
		t.Fatalf("MakeBuffer: %v", err)
	}
	return Entry{Due: due, Layers: []ports.DisplayLayer{FullScreenLayer(buf, testMode)}}
}

func waitShown(t *testing.T, p *Player, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Shown() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d shown frames, have %d", n, p.Shown())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPresentsEntriesInOrder(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})
	defer p.Close()

	now := time.Now()
	entries := []Entry{
		makeEntry(t, display, now.Add(20*time.Millisecond)),
		makeEntry(t, display, now.Add(120*time.Millisecond)),
		makeEntry(t, display, now.Add(220*time.Millisecond)),
	}
	first := entries[0].Layers[0].Image
	notify := wake.NewSignal()
	p.SetTimeline(entries, notify)
	// The caller's references are no longer needed once the player holds its own.
	for _, e := range entries {
		e.Layers[0].Image.Release()
	}

	waitShown(t, p, 3)
	updates := display.Updates()
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	if updates[0].Layers[0].Image != first {
		t.Error("first update does not carry the first entry's image")
	}
	for _, u := range updates {
		if u.ConnectorID != 1 {
			t.Errorf("update went to connector %d", u.ConnectorID)
		}
		if u.Mode != testMode {
			t.Errorf("update used mode %+v", u.Mode)
		}
	}
}

func TestSkipsSupersededEntries(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})
	defer p.Close()

	// All entries are already due; only the newest should be presented.
	now := time.Now()
	entries := []Entry{
		makeEntry(t, display, now.Add(-30*time.Millisecond)),
		makeEntry(t, display, now.Add(-20*time.Millisecond)),
		makeEntry(t, display, now.Add(-10*time.Millisecond)),
	}
	newest := entries[2].Layers[0].Image
	p.SetTimeline(entries, nil)
	for _, e := range entries {
		e.Layers[0].Image.Release()
	}

	waitShown(t, p, 1)
	time.Sleep(20 * time.Millisecond)
	updates := display.Updates()
	if len(updates) != 1 {
		t.Fatalf("expected 1 update for stale entries, got %d", len(updates))
	}
	if updates[0].Layers[0].Image != newest {
		t.Error("player presented a superseded entry")
	}
}

func TestSetTimelineReplacesSchedule(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})
	defer p.Close()

	far := makeEntry(t, display, time.Now().Add(time.Hour))
	p.SetTimeline([]Entry{far}, nil)
	far.Layers[0].Image.Release()

	// Replace the distant schedule with an immediate one.
	soon := makeEntry(t, display, time.Now())
	p.SetTimeline([]Entry{soon}, nil)
	soon.Layers[0].Image.Release()

	waitShown(t, p, 1)
	if updates := display.Updates(); updates[0].Layers[0].Image != soon.Layers[0].Image {
		t.Error("replaced schedule was not the one presented")
	}
}

func TestTimelineReferencesReleased(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})

	e := makeEntry(t, display, time.Now().Add(time.Hour))
	p.SetTimeline([]Entry{e}, nil)
	e.Layers[0].Image.Release()
	if display.LiveBuffers() != 1 {
		t.Fatalf("player should keep its reference, live=%d", display.LiveBuffers())
	}

	p.SetTimeline(nil, nil)
	if display.LiveBuffers() != 0 {
		t.Errorf("replaced timeline not released, live=%d", display.LiveBuffers())
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCloseReleasesTimeline(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})

	e := makeEntry(t, display, time.Now().Add(time.Hour))
	p.SetTimeline([]Entry{e}, nil)
	e.Layers[0].Image.Release()

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if display.LiveBuffers() != 0 {
		t.Errorf("timeline leaked across Close, live=%d", display.LiveBuffers())
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestNotifyFiresAfterPresentation(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})
	defer p.Close()

	notify := wake.NewSignal()
	e := makeEntry(t, display, time.Now())
	p.SetTimeline([]Entry{e}, notify)
	e.Layers[0].Image.Release()

	if !notify.WaitFor(2 * time.Second) {
		t.Fatal("notify never fired after a presented frame")
	}
}

func TestRetriesWhileConnectorBusy(t *testing.T) {
	display := mocks.NewDisplayDriver()
	var ready = make(chan struct{})
	display.ReadyForUpdateFunc = func(uint32) bool {
		select {
		case <-ready:
			return true
		default:
			return false
		}
	}
	p := New(display, 1, testMode, Options{RetryInterval: time.Millisecond})
	defer p.Close()

	e := makeEntry(t, display, time.Now())
	p.SetTimeline([]Entry{e}, nil)
	e.Layers[0].Image.Release()

	time.Sleep(20 * time.Millisecond)
	if p.Shown() != 0 {
		t.Fatal("frame presented while the connector was busy")
	}
	close(ready)
	waitShown(t, p, 1)
}

func TestInjectedClockGatesPresentation(t *testing.T) {
	display := mocks.NewDisplayDriver()
	clock := mocks.NewClock(time.Unix(1000, 0))
	p := New(display, 1, testMode, Options{Clock: clock})
	defer p.Close()

	e := makeEntry(t, display, clock.Now().Add(time.Second))
	p.SetTimeline([]Entry{e}, nil)
	defer e.Layers[0].Image.Release()

	// Frozen clock: the entry never comes due, no matter how much real
	// time passes.
	time.Sleep(50 * time.Millisecond)
	if p.Shown() != 0 {
		t.Fatal("frame presented before its due time on the injected clock")
	}

	clock.Advance(2 * time.Second)
	p.SetTimeline([]Entry{e}, nil)
	waitShown(t, p, 1)
}

func TestSessionIsStable(t *testing.T) {
	display := mocks.NewDisplayDriver()
	p := New(display, 1, testMode, Options{})
	defer p.Close()
	if p.Session() == "" {
		t.Fatal("empty session id")
	}
	if p.Session() != p.Session() {
		t.Error("session id changed between calls")
	}
}

func TestFullScreenLayer(t *testing.T) {
	display := mocks.NewDisplayDriver()
	buf, _ := display.MakeBuffer(320, 240, 32)
	defer buf.Release()
	layer := FullScreenLayer(buf, testMode)
	if layer.ImageWidth != 320 || layer.ImageHeight != 240 {
		t.Errorf("source rect %vx%v", layer.ImageWidth, layer.ImageHeight)
	}
	if layer.ScreenWidth != 640 || layer.ScreenHeight != 480 {
		t.Errorf("dest rect %dx%d", layer.ScreenWidth, layer.ScreenHeight)
	}
}
