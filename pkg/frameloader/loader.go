// Package frameloader maintains a rolling cache of decoded, device-resident
// frames for one open media stream.
//
// A Loader owns one background goroutine that advances a forward-only
// decoder through the caller's regions of interest, uploads ready frames
// into display buffers, and evicts whatever falls outside interest. Callers
// never block on decode: they declare interest with SetRequest and read
// consistent snapshots with Content.
package frameloader

import (
	"encoding/json"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
	"github.com/user/signage/pkg/wake"
)

// Frame is one cached frame: a timestamp and the device buffer holding its
// pixels.
type Frame struct {
	Time  timeline.Seconds
	Image ports.ImageBuffer
}

// Content is a snapshot of the loader's cache.
//
// Frames is sorted ascending by time. Cover lists the time ranges that are
// fully represented: within Cover, the frame active at any point is present
// in Frames. A corrupt source frame is never covered on its own; its span
// joins Cover only once a preceding frame is cached to stand in for it.
// EOF, once known, is the point past which no further frames exist.
//
// The snapshot holds a reference on every frame buffer; call Release when
// done with it.
type Content struct {
	Frames []Frame
	Cover  timeline.IntervalSet[timeline.Seconds]
	EOF    *timeline.Seconds
}

// FrameAt returns the frame active at time t: the entry with the greatest
// timestamp <= t. It returns false if no such entry exists.
func (c Content) FrameAt(t timeline.Seconds) (Frame, bool) {
	i := sort.Search(len(c.Frames), func(i int) bool {
		return c.Frames[i].Time > t
	})
	if i == 0 {
		return Frame{}, false
	}
	return c.Frames[i-1], true
}

// Release drops the snapshot's references on its frame buffers.
func (c Content) Release() {
	for _, f := range c.Frames {
		f.Image.Release()
	}
}

// Options configures a Loader.
type Options struct {
	// OpenDecoder constructs the decoder for the loader's file. Required.
	OpenDecoder ports.OpenDecoderFunc

	// Logger receives loader diagnostics. Defaults to a silent logger.
	Logger ports.Logger

	// MinPoll and MaxPoll bound the backoff while the decoder has no frame
	// ready. Defaults: 1ms and 20ms.
	MinPoll time.Duration
	MaxPoll time.Duration

	// BitsPerPixel is the depth of allocated display buffers. Default 32.
	BitsPerPixel int

	// Sink, if enabled, receives every decoded frame for diagnosis.
	Sink ports.DebugSink
}

type cachedFrame struct {
	Frame
	end timeline.Seconds // end of the frame's represented span
}

// Loader caches decoded frames for one media file on one display device.
type Loader struct {
	display  ports.DisplayDriver
	filename string
	opts     Options
	log      ports.Logger

	wakeup *wake.Signal  // loader goroutine wake: request changed or closing
	done   chan struct{} // closed when the loader goroutine exits

	infoSaved bool // loader goroutine only

	mu      sync.Mutex
	request timeline.IntervalSet[timeline.Seconds]
	notify  *wake.Signal
	frames  []cachedFrame                          // sorted ascending by Time
	cover   timeline.IntervalSet[timeline.Seconds]
	sof     *timeline.Seconds                      // time of the stream's first frame, once seen
	eof     *timeline.Seconds                      // end of the stream, once seen
	skipped timeline.IntervalSet[timeline.Seconds] // undecodable spans with no frame to stand in
	fatal   bool                                   // decoder or allocator permanently broken
	closing bool
}

// New creates a loader for filename and starts its background goroutine.
// Buffers are allocated from display. The loader runs until Close.
func New(display ports.DisplayDriver, filename string, opts Options) *Loader {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.MinPoll <= 0 {
		opts.MinPoll = time.Millisecond
	}
	if opts.MaxPoll < opts.MinPoll {
		opts.MaxPoll = 20 * time.Millisecond
	}
	if opts.BitsPerPixel <= 0 {
		opts.BitsPerPixel = 32
	}
	l := &Loader{
		display:  display,
		filename: filename,
		opts:     opts,
		log:      opts.Logger.WithComponent("frameloader"),
		wakeup:   wake.NewSignal(),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

// SetRequest atomically replaces the loader's regions of interest.
//
// Frames whose represented span no longer intersects the request are
// evicted and their buffers released; cover shrinks accordingly. An empty
// request stops active work and frees the whole cache without tearing the
// loader down. notify replaces any previously registered signal and is set
// whenever cover or EOF changes while this request is active.
func (l *Loader) SetRequest(want timeline.IntervalSet[timeline.Seconds], notify *wake.Signal) {
	l.mu.Lock()
	same := want.Equal(l.request)
	l.request = want.Clone()
	l.notify = notify
	changed := false
	if !same {
		changed = l.evictLocked()
	}
	l.mu.Unlock()

	l.wakeup.Set()
	if changed && notify != nil {
		notify.Set()
	}
}

// Content returns a snapshot of the cache. It never waits on decode, and
// the returned frames, cover and EOF are mutually consistent.
func (l *Loader) Content() Content {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := Content{
		Frames: make([]Frame, len(l.frames)),
		Cover:  l.cover.Clone(),
		EOF:    l.eof,
	}
	for i, cf := range l.frames {
		out.Frames[i] = Frame{Time: cf.Time, Image: cf.Image.Retain()}
	}
	return out
}

// Close stops the background goroutine, waits for it to exit, and releases
// all cached buffers and decoder resources. It is safe to call twice.
func (l *Loader) Close() error {
	l.mu.Lock()
	already := l.closing
	l.closing = true
	l.mu.Unlock()

	l.wakeup.Set()
	<-l.done
	if already {
		return nil
	}

	l.mu.Lock()
	for _, cf := range l.frames {
		cf.Image.Release()
	}
	l.frames = nil
	l.cover.Clear()
	l.mu.Unlock()
	return nil
}

// run is the loader goroutine. It advances the decoder toward the lowest
// uncovered point of the request, parking whenever there is nothing to do.
func (l *Loader) run() {
	defer close(l.done)

	var dec ports.MediaDecoder
	defer func() {
		if dec != nil {
			dec.Close()
		}
	}()

	// End of the span emitted so far by the current decoder; frames arrive
	// strictly increasing, so a gap before this point needs a fresh decoder.
	var decPos timeline.Seconds

	// Where cover may extend seamlessly from, while consecutive decoded
	// frames are being kept. Nil after a reopen, a dropped frame or a
	// request change.
	var coverFrom *timeline.Seconds

	backoff := l.opts.MinPoll

	for {
		l.mu.Lock()
		if l.closing {
			l.mu.Unlock()
			return
		}
		wanted := l.wantedLocked()
		fatal := l.fatal
		l.mu.Unlock()

		if fatal || wanted.Empty() {
			// Nothing to do until the request changes or we shut down.
			l.wakeup.Wait()
			coverFrom = nil
			continue
		}

		gap := wanted.All()[0]

		if dec == nil || decPos > gap.Start {
			if dec != nil {
				dec.Close()
				dec = nil
			}
			d, err := l.opts.OpenDecoder(l.filename)
			if err != nil {
				l.log.Error("Failed to open decoder for %s: %s", l.filename, err)
				l.setFatal()
				continue
			}
			dec = d
			decPos = 0
			coverFrom = nil
			l.log.Debug("Opened decoder for %s, loading %s", l.filename, gap.String())
			l.saveInfoOnce(dec.Info())
		}

		frame, err := dec.GetFrameIfReady()
		if err != nil {
			l.log.Error("Decoder failed for %s: %s", l.filename, err)
			dec.Close()
			dec = nil
			l.setFatal()
			continue
		}

		if frame == nil {
			if dec.ReachedEOF() {
				l.recordEOF(decPos)
				continue
			}
			// Transient unreadiness: bounded backoff, interruptible by
			// SetRequest and Close.
			l.wakeup.WaitFor(backoff)
			backoff = min(backoff*2, l.opts.MaxPoll)
			continue
		}
		backoff = l.opts.MinPoll
		l.noteStart(frame.Time)

		dur := dec.Info().FrameDuration()
		span := timeline.Interval[timeline.Seconds]{Start: frame.Time, End: frame.Time + dur}
		decPos = span.End

		coverFrom = l.absorb(dec.Info(), frame, span, coverFrom)
	}
}

// absorb folds one decoded frame into the cache and returns the updated
// seamless cover extension point.
func (l *Loader) absorb(
	info ports.MediaInfo,
	frame *ports.MediaFrame,
	span timeline.Interval[timeline.Seconds],
	coverFrom *timeline.Seconds,
) *timeline.Seconds {
	end := span.End

	if frame.IsCorrupt {
		// Dropped, not fatal. The last cached frame before this span is
		// stretched to stand in for it, so coverage is not blocked.
		l.log.Warn("Skipping corrupt frame at %.3fs in %s", frame.Time, l.filename)
		l.mu.Lock()
		if !l.request.Intersects(span) {
			l.mu.Unlock()
			return nil
		}
		if !l.extendLocked(span.Start, span.End) {
			// Nothing cached precedes the corrupt frame; record the span
			// as undecodable so it is not chased forever.
			l.skipped.Add(span)
			l.mu.Unlock()
			return nil
		}
		l.cover.Add(span)
		l.cover = l.cover.Intersection(l.request)
		notify := l.notify
		l.mu.Unlock()
		if notify != nil {
			notify.Set()
		}
		return &end
	}

	l.mu.Lock()
	relevant := l.request.Intersects(span)
	l.mu.Unlock()
	if !relevant {
		// Outside current interest; the seamless run is broken because the
		// frame that would back the skipped span is not cached.
		return nil
	}

	if l.opts.Sink != nil && l.opts.Sink.Enabled() {
		if err := l.opts.Sink.SaveDecodedFrame(frame.Time, frame.Image); err != nil {
			l.log.Warn("Failed to save debug frame: %s", err)
		}
	}

	// Upload outside the lock; Content must never wait on this.
	w, h := info.Width, info.Height
	if w <= 0 || h <= 0 {
		b := frame.Image.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	buf, err := l.display.MakeBuffer(w, h, l.opts.BitsPerPixel)
	if err != nil {
		l.log.Error("Failed to allocate %dx%d display buffer: %s", w, h, err)
		l.setFatal()
		return nil
	}
	if err := buf.Draw(frame.Image); err != nil {
		buf.Release()
		l.log.Error("Failed to upload frame at %.3fs: %s", frame.Time, err)
		l.setFatal()
		return nil
	}

	l.mu.Lock()
	if !l.request.Intersects(span) {
		// The request shrank away from this frame during the upload.
		l.mu.Unlock()
		buf.Release()
		return nil
	}
	covered := span
	if coverFrom != nil && *coverFrom < span.Start && l.extendLocked(*coverFrom, span.Start) {
		covered.Start = *coverFrom
	}
	l.insertLocked(cachedFrame{Frame: Frame{Time: frame.Time, Image: buf}, end: span.End})
	l.cover.Add(covered)
	l.cover = l.cover.Intersection(l.request)
	notify := l.notify
	l.mu.Unlock()
	if notify != nil {
		notify.Set()
	}
	return &end
}

// wantedLocked computes the regions still to load: the request minus what
// is covered or known undecodable, minus everything before the stream's
// first frame or at and past a known EOF. No media exists outside
// [sof, eof), so requests there would otherwise reopen the decoder
// without ever making progress.
func (l *Loader) wantedLocked() timeline.IntervalSet[timeline.Seconds] {
	wanted := l.request.Clone()
	wanted.SubtractSet(l.cover)
	wanted.SubtractSet(l.skipped)
	if l.sof != nil {
		wanted.Subtract(timeline.Interval[timeline.Seconds]{
			Start: math.Inf(-1),
			End:   *l.sof,
		})
	}
	if l.eof != nil {
		wanted.Subtract(timeline.Interval[timeline.Seconds]{
			Start: *l.eof,
			End:   math.Inf(1),
		})
	}
	return wanted
}

// noteStart records the earliest frame timestamp seen so far. Every reopen
// decodes from the top of the stream, so this converges immediately.
func (l *Loader) noteStart(t timeline.Seconds) {
	l.mu.Lock()
	if l.sof == nil || t < *l.sof {
		l.sof = &t
	}
	l.mu.Unlock()
}

// extendLocked stretches the represented span of the cached frame active
// just before gapStart through gapEnd, so every covered instant stays
// backed by a cached frame. Returns false when no contiguous frame is
// cached there.
func (l *Loader) extendLocked(gapStart, gapEnd timeline.Seconds) bool {
	i := sort.Search(len(l.frames), func(i int) bool {
		return l.frames[i].Time >= gapStart
	})
	if i == 0 {
		return false
	}
	prev := &l.frames[i-1]
	if prev.end < gapStart {
		return false
	}
	if prev.end < gapEnd {
		prev.end = gapEnd
	}
	return true
}

// insertLocked places a frame in timestamp order, replacing a same-time
// entry if the decoder re-emitted it after a reopen.
func (l *Loader) insertLocked(cf cachedFrame) {
	i := sort.Search(len(l.frames), func(i int) bool {
		return l.frames[i].Time >= cf.Time
	})
	if i < len(l.frames) && l.frames[i].Time == cf.Time {
		l.frames[i].Image.Release()
		l.frames[i] = cf
		return
	}
	l.frames = slices.Insert(l.frames, i, cf)
}

// evictLocked drops frames whose span no longer intersects the request and
// trims cover to the request. Returns whether anything changed.
func (l *Loader) evictLocked() bool {
	changed := false
	kept := l.frames[:0]
	for _, cf := range l.frames {
		span := timeline.Interval[timeline.Seconds]{Start: cf.Time, End: cf.end}
		if l.request.Intersects(span) {
			kept = append(kept, cf)
			continue
		}
		cf.Image.Release()
		changed = true
	}
	l.frames = kept

	trimmed := l.cover.Intersection(l.request)
	if !trimmed.Equal(l.cover) {
		l.cover = trimmed
		changed = true
	}
	return changed
}

// saveInfoOnce dumps the stream metadata to the debug sink, on the first
// decoder open only.
func (l *Loader) saveInfoOnce(info ports.MediaInfo) {
	if l.infoSaved || l.opts.Sink == nil || !l.opts.Sink.Enabled() {
		return
	}
	l.infoSaved = true
	data, err := json.MarshalIndent(info, "", "  ")
	if err == nil {
		err = l.opts.Sink.SaveInfoJSON(data)
	}
	if err != nil {
		l.log.Warn("Failed to save stream info: %s", err)
	}
}

func (l *Loader) setFatal() {
	l.mu.Lock()
	l.fatal = true
	l.mu.Unlock()
}

func (l *Loader) recordEOF(end timeline.Seconds) {
	l.mu.Lock()
	changed := l.eof == nil || *l.eof != end
	l.eof = &end
	notify := l.notify
	l.mu.Unlock()
	if changed {
		l.log.Debug("Reached end of %s at %.3fs", l.filename, end)
		if notify != nil {
			notify.Set()
		}
	}
}

// noopLogger keeps the loader quiet when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})      {}
func (noopLogger) Info(string, ...interface{})       {}
func (noopLogger) Warn(string, ...interface{})       {}
func (noopLogger) Error(string, ...interface{})      {}
func (noopLogger) WithComponent(string) ports.Logger { return noopLogger{} }
