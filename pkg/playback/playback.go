// Package playback coordinates a frame loader and a player for one media
// stream on one display output.
//
// The controller keeps the loader's request window sliding around the
// playhead and feeds newly cached frames to the player's schedule, so
// decode stays ahead of presentation without caching the whole file.
package playback

import (
	"context"
	"time"

	"github.com/user/signage/pkg/frameloader"
	"github.com/user/signage/pkg/player"
	"github.com/user/signage/pkg/ports"
	"github.com/user/signage/pkg/timeline"
	"github.com/user/signage/pkg/wake"
)

// Config controls the cache window and pacing.
type Config struct {
	// Ahead is how far past the playhead the loader should cache. Default 10s.
	Ahead timeline.Seconds

	// Behind is how far before the playhead frames stay cached. Default 1s.
	Behind timeline.Seconds

	// Tick bounds how long the controller waits between window updates
	// when no loader progress arrives. Default 250ms.
	Tick time.Duration
}

func (c Config) withDefaults() Config {
	if c.Ahead <= 0 {
		c.Ahead = 10
	}
	if c.Behind <= 0 {
		c.Behind = 1
	}
	if c.Tick <= 0 {
		c.Tick = 250 * time.Millisecond
	}
	return c
}

// Controller runs one playback session.
type Controller struct {
	loader *frameloader.Loader
	player *player.Player
	mode   ports.DisplayMode
	clock  ports.Clock
	log    ports.Logger
	cfg    Config
}

// New creates a controller. The loader and player stay owned by the
// caller; Run does not close them.
func New(
	loader *frameloader.Loader,
	plyr *player.Player,
	mode ports.DisplayMode,
	clock ports.Clock,
	log ports.Logger,
	cfg Config,
) *Controller {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Controller{
		loader: loader,
		player: plyr,
		mode:   mode,
		clock:  clock,
		log:    log.WithComponent("playback"),
		cfg:    cfg.withDefaults(),
	}
}

// Run plays the stream from its start until EOF has been reached and
// presented, or until ctx is cancelled. Media time zero is anchored to the
// wall clock at the moment of the call.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Debug("Cache window %.1fs behind, %.1fs ahead", c.cfg.Behind, c.cfg.Ahead)

	progress := wake.NewSignal()
	start := c.clock.Now()

	defer c.loader.SetRequest(timeline.IntervalSet[timeline.Seconds]{}, nil)

	for {
		if err := ctx.Err(); err != nil {
			c.log.Info("Playback cancelled")
			return err
		}

		playhead := timeline.Seconds(c.clock.Now().Sub(start).Seconds())
		window := timeline.NewSet(timeline.Interval[timeline.Seconds]{
			Start: max(playhead-c.cfg.Behind, 0),
			End:   playhead + c.cfg.Ahead,
		})
		c.loader.SetRequest(window, progress)

		snapshot := c.loader.Content()
		entries := make([]player.Entry, 0, len(snapshot.Frames))
		for _, f := range snapshot.Frames {
			entries = append(entries, player.Entry{
				Due:    start.Add(time.Duration(f.Time * timeline.Seconds(time.Second))),
				Layers: []ports.DisplayLayer{player.FullScreenLayer(f.Image, c.mode)},
			})
		}
		c.player.SetTimeline(entries, nil)

		eof := snapshot.EOF
		snapshot.Release()

		if eof != nil && playhead >= *eof {
			c.log.Info("Playback finished at %.3fs", *eof)
			return nil
		}

		progress.WaitFor(c.cfg.Tick)
	}
}
