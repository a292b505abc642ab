package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/session"
	"github.com/star/earthspin/internal/tui"
)

var (
	logFile = flag.String("log", "", "write JSON logs to this file (the terminal is used for drawing)")
	tickMS  = flag.Int("tick", 16, "animation tick interval in milliseconds")
	landURL = flag.String("land", "", "land GeoJSON URL passed through to the frame")
)

func main() {
	flag.Parse()

	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tick := time.Duration(*tickMS) * time.Millisecond
	if *tickMS < 1 {
		logger.Warn("invalid tick interval, using default", "value", *tickMS, "default", 16)
		tick = session.DefaultTickInterval
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal if anything below panics.
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "earthspin-tui crashed: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := session.New(uuid.NewString(), session.Config{TickInterval: tick, InitialView: session.InitialView}, logger)
	static := layers.NewStatic(layers.StaticConfig{LandURL: *landURL})
	app := tui.New(screen, sess, layers.NewAssembler(static, layers.DefaultLighting(time.Now())), logger)

	logger.Info("starting tui", "session_id", sess.ID(), "tick_interval_ms", tick.Milliseconds())
	runErr := app.Run(ctx)
	sess.Close()
	screen.Fini()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "earthspin-tui: %v\n", runErr)
		os.Exit(1)
	}
}
