// Package player presents cached frames on a display output at their
// scheduled times.
//
// A Player owns one goroutine that sleeps until the next scheduled frame
// is due, then pushes its layers to the display. The schedule is replaced
// wholesale with SetTimeline; frames whose time already passed are skipped
// in favor of the newest due entry.
package player

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/wake"
)

// Entry schedules one update: at Due, show Layers.
type Entry struct {
	Due    time.Time
	Layers []ports.DisplayLayer
}

// Options configures a Player.
type Options struct {
	// Clock is the time source. Defaults to the system clock.
	Clock ports.Clock

	// Logger receives player diagnostics. Defaults to silence.
	Logger ports.Logger

	// RetryInterval is the pause before re-checking a connector that is
	// not ready for an update. Default 2ms.
	RetryInterval time.Duration
}

// Player drives one display connector.
type Player struct {
	display   ports.DisplayDriver
	connector uint32
	mode      ports.DisplayMode
	clock     ports.Clock
	log       ports.Logger
	session   string
	retry     time.Duration

	wakeup *wake.Signal
	done   chan struct{}

	mu       sync.Mutex
	timeline []Entry
	cursor   int // next timeline entry not yet presented
	notify   *wake.Signal
	shown    int
	closing  bool
}

// New creates a player for one connector and starts its goroutine.
func New(display ports.DisplayDriver, connectorID uint32, mode ports.DisplayMode, opts Options) *Player {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = silentLogger{}
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 2 * time.Millisecond
	}
	p := &Player{
		display:   display,
		connector: connectorID,
		mode:      mode,
		clock:     opts.Clock,
		log:       opts.Logger.WithComponent("player"),
		session:   uuid.NewString(),
		retry:     opts.RetryInterval,
		wakeup:    wake.NewSignal(),
		done:      make(chan struct{}),
	}
	p.log.Debug("Starting player session %s on connector %d", p.session, connectorID)
	go p.run()
	return p
}

// SetTimeline replaces the playback schedule. The player retains its own
// reference on every layer image; callers keep or release theirs freely.
// notify replaces any previously registered signal and is set after each
// presented frame.
func (p *Player) SetTimeline(entries []Entry, notify *wake.Signal) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Due.Before(sorted[j].Due) })
	for _, e := range sorted {
		for _, layer := range e.Layers {
			layer.Image.Retain()
		}
	}

	p.mu.Lock()
	old := p.timeline
	p.timeline = sorted
	p.cursor = 0
	p.notify = notify
	p.mu.Unlock()

	releaseAll(old)
	p.wakeup.Set()
}

// Shown returns the number of frames presented so far.
func (p *Player) Shown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

// Session returns the player's session id, for log correlation.
func (p *Player) Session() string {
	return p.session
}

// Close stops the goroutine and releases the retained schedule.
func (p *Player) Close() error {
	p.mu.Lock()
	already := p.closing
	p.closing = true
	p.mu.Unlock()

	p.wakeup.Set()
	<-p.done
	if already {
		return nil
	}

	p.mu.Lock()
	old := p.timeline
	p.timeline = nil
	p.mu.Unlock()
	releaseAll(old)
	p.log.Debug("Player session %s stopped", p.session)
	return nil
}

func (p *Player) run() {
	defer close(p.done)

	for {
		p.mu.Lock()
		if p.closing {
			p.mu.Unlock()
			return
		}
		now := p.clock.Now()

		// Present the newest due entry, skipping any it superseded.
		show := -1
		for p.cursor < len(p.timeline) && !p.timeline[p.cursor].Due.After(now) {
			show = p.cursor
			p.cursor++
		}
		var entry Entry
		if show >= 0 {
			entry = p.timeline[show]
		}
		p.mu.Unlock()

		if show >= 0 {
			p.present(entry)
		}

		p.mu.Lock()
		var wait time.Duration = -1
		if p.cursor < len(p.timeline) {
			wait = p.timeline[p.cursor].Due.Sub(p.clock.Now())
		}
		p.mu.Unlock()

		if wait < 0 {
			// Nothing scheduled; park until the timeline changes.
			p.wakeup.Wait()
		} else if wait > 0 {
			p.wakeup.WaitFor(wait)
		}
	}
}

func (p *Player) present(entry Entry) {
	for !p.display.ReadyForUpdate(p.connector) {
		p.log.Debug("Connector %d not ready, retrying", p.connector)
		if p.wakeup.WaitFor(p.retry) {
			// Woken for a reason; let the loop re-evaluate.
			return
		}
		p.mu.Lock()
		closing := p.closing
		p.mu.Unlock()
		if closing {
			return
		}
	}
	if err := p.display.UpdateOutput(p.connector, p.mode, entry.Layers); err != nil {
		p.log.Error("Failed to update output: %s", err)
		return
	}

	p.mu.Lock()
	p.shown++
	notify := p.notify
	p.mu.Unlock()
	if notify != nil {
		notify.Set()
	}
}

// FullScreenLayer builds a layer that scales an image buffer to fill a mode.
func FullScreenLayer(img ports.ImageBuffer, mode ports.DisplayMode) ports.DisplayLayer {
	return ports.DisplayLayer{
		Image:        img,
		ImageX:       0,
		ImageY:       0,
		ImageWidth:   float64(img.Width()),
		ImageHeight:  float64(img.Height()),
		ScreenX:      0,
		ScreenY:      0,
		ScreenWidth:  mode.Width,
		ScreenHeight: mode.Height,
	}
}

func releaseAll(entries []Entry) {
	for _, e := range entries {
		for _, layer := range e.Layers {
			layer.Image.Release()
		}
	}
}

// silentLogger discards player diagnostics when no logger is supplied.
type silentLogger struct{}

func (silentLogger) Debug(string, ...interface{})      {}
func (silentLogger) Info(string, ...interface{})       {}
func (silentLogger) Warn(string, ...interface{})       {}
func (silentLogger) Error(string, ...interface{})      {}
func (silentLogger) WithComponent(string) ports.Logger { return silentLogger{} }
