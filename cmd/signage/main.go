// Package main provides the CLI entry point for signage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/signage/pkg/adapters/filesink"
	"github.com/user/signage/pkg/adapters/logger"
	"github.com/user/signage/pkg/adapters/memdisplay"
	"github.com/user/signage/pkg/adapters/mp4decoder"
	"github.com/user/signage/pkg/adapters/nullsink"
	"github.com/user/signage/pkg/adapters/osfilesystem"
	"github.com/user/signage/pkg/adapters/testcard"
	"github.com/user/signage/pkg/config"
	"github.com/user/signage/pkg/frameloader"
	"github.com/user/signage/pkg/playback"
	"github.com/user/signage/pkg/player"
	"github.com/user/signage/pkg/ports"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Play    PlayCmd    `cmd:"" help:"Play a media file on a display output."`
	Info    InfoCmd    `cmd:"" help:"Show media file stream information."`
	Outputs OutputsCmd `cmd:"" help:"List display connectors."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// PlayCmd defines the play subcommand.
type PlayCmd struct {
	// Required arguments
	File string `arg:"" optional:"" help:"Media file to play (omit with --testcard)."`

	// Source
	Testcard bool    `short:"t" help:"Play the built-in test card instead of a file."`
	Duration float64 `help:"Test card duration in seconds."`

	// Cache window
	Ahead  float64 `short:"a" help:"Seconds to cache ahead of the playhead."`
	Behind float64 `short:"b" help:"Seconds to keep cached behind the playhead."`

	// Config
	Config string `short:"c" type:"path" help:"YAML configuration file."`

	// Debug options
	Debug    bool   `short:"d" help:"Enable debug output."`
	DebugDir string `help:"Directory for debug output."`

	// Logging options
	LogLevel string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`
}

// InfoCmd defines the info subcommand.
type InfoCmd struct {
	File string `arg:"" help:"Media file to inspect."`
	JSON bool   `help:"Print machine-readable JSON."`
}

// OutputsCmd lists display connectors.
type OutputsCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("signage"),
		kong.Description("Play media files on fixed-mode display outputs."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the play command.
func (cmd *PlayCmd) Run() error {
	cfg, err := cmd.buildConfig()
	if err != nil {
		return err
	}

	// Create logger
	var log ports.Logger
	if cmd.Quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	// Pick the decoder for the source
	name := cmd.File
	openDecoder := mp4decoder.Open
	if cmd.Testcard || cmd.File == "" {
		name = "testcard"
		openDecoder = func(string) (ports.MediaDecoder, error) {
			return testcard.New(testcard.Config{
				Width:    cfg.Testcard.Width,
				Height:   cfg.Testcard.Height,
				FPS:      cfg.Testcard.FPS,
				Duration: cfg.Testcard.Duration,
			}), nil
		}
	}

	// Create debug sink
	fs := osfilesystem.New()
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	// Assemble the playback path
	display := memdisplay.New()
	mode := memdisplay.DefaultMode

	loader := frameloader.New(display, name, frameloader.Options{
		OpenDecoder:  openDecoder,
		Logger:       log,
		MinPoll:      time.Duration(cfg.MinPollMs) * time.Millisecond,
		MaxPoll:      time.Duration(cfg.MaxPollMs) * time.Millisecond,
		BitsPerPixel: cfg.BitsPerPixel,
		Sink:         sink,
	})
	defer loader.Close()

	plyr := player.New(display, cfg.Connector, mode, player.Options{Logger: log})
	defer plyr.Close()

	controller := playback.New(loader, plyr, mode, ports.SystemClock{}, log, playback.Config{
		Ahead:  cfg.AheadSeconds,
		Behind: cfg.BehindSeconds,
	})

	log.Info(l10n.F("Playing %s", name))
	if err := controller.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// buildConfig merges the config file and command-line overrides.
func (cmd *PlayCmd) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cmd.Config != "" {
		var err error
		cfg, err = config.LoadFromFile(cmd.Config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if cmd.Ahead > 0 {
		cfg.AheadSeconds = cmd.Ahead
	}
	if cmd.Behind > 0 {
		cfg.BehindSeconds = cmd.Behind
	}
	if cmd.Duration > 0 {
		cfg.Testcard.Duration = cmd.Duration
	}
	if cmd.Debug {
		cfg.Debug = true
	}
	if cmd.DebugDir != "" {
		cfg.DebugDir = cmd.DebugDir
	}
	if cmd.LogLevel != "" {
		cfg.LogLevel = cmd.LogLevel
	}
	return cfg, nil
}

// Run executes the info command.
func (cmd *InfoCmd) Run() error {
	dec, err := mp4decoder.Open(cmd.File)
	if err != nil {
		return err
	}
	defer dec.Close()

	info := dec.Info()
	if cmd.JSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("%s: %s %dx%d", cmd.File, info.CodecName, info.Width, info.Height)
	if info.FrameRate > 0 {
		fmt.Printf(" @ %.2ffps", info.FrameRate)
	}
	if info.Duration > 0 {
		fmt.Printf(", %.3fs", info.Duration)
	}
	fmt.Println()
	return nil
}

// Run executes the outputs command.
func (cmd *OutputsCmd) Run() error {
	display := memdisplay.New()
	statuses, err := display.ScanOutputs()
	if err != nil {
		return err
	}
	for _, st := range statuses {
		state := "disconnected"
		if st.Detected {
			state = "connected"
		}
		fmt.Printf("#%d %s: %s", st.ConnectorID, st.ConnectorName, state)
		if st.ActiveMode.Name != "" {
			fmt.Printf(", active %s", st.ActiveMode.Name)
		}
		fmt.Println()
	}
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("signage version %s", version))
	return nil
}
