package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/deixis/scriptpanel/internal/config"
	"github.com/deixis/scriptpanel/internal/display"
	"github.com/deixis/scriptpanel/internal/loop"
	"github.com/deixis/scriptpanel/internal/runner"
	"github.com/deixis/scriptpanel/internal/supervisor"
	"github.com/spf13/cobra"
)

// stopTimeout bounds how long shutdown waits for the loop to apply Stop.
const stopTimeout = 5 * time.Second

// app is a running supervisor with its loop and panels.
type app struct {
	loaded *config.LoadResult
	loop   *loop.Loop
	board  *display.Board
	sup    *supervisor.Supervisor
	logger *log.Logger

	loopDone chan error
	closers  []io.Closer
}

func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadConfig loads the scripts selected by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.LoadResult, error) {
	loaded, err := config.Load(configPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return loaded, nil
}

// newLogger returns the diagnostics logger. quiet discards output unless
// --log-file is set, for hosts that own the terminal.
func newLogger(cmd *cobra.Command, quiet bool) (*log.Logger, io.Closer, error) {
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		if quiet {
			return log.New(io.Discard, "", 0), nil, nil
		}
		return log.Default(), nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return log.New(f, "scriptpanel: ", log.LstdFlags), f, nil
}

// startApp loads the config, starts the loop and enables every script.
func startApp(ctx context.Context, cmd *cobra.Command, quiet bool) (*app, error) {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(cmd, quiet)
	if err != nil {
		return nil, err
	}

	a := &app{
		loaded:   loaded,
		loop:     loop.New(logger),
		board:    display.NewBoard(),
		logger:   logger,
		loopDone: make(chan error, 1),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	go func() { a.loopDone <- a.loop.Run(context.Background()) }()

	r := &runner.Runner{Dispatcher: a.loop, Logger: logger}
	a.sup = supervisor.New(a.loop, r, loaded.Scripts, a.board.Sink, logger)
	if err := a.loop.Invoke(ctx, a.sup.Enable); err != nil {
		a.close()
		return nil, fmt.Errorf("enabling scripts: %w", err)
	}
	logger.Printf("enabled %d scripts from %s", len(loaded.Scripts), loaded.Path)
	return a, nil
}

// close disables every script, stops the loop and closes the board.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.loop.Invoke(ctx, a.sup.Stop); err != nil && !errors.Is(err, loop.ErrStopped) {
		a.logger.Printf("stopping scripts: %v", err)
	}
	a.loop.Quit()
	<-a.loopDone
	a.board.Close()
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// settled waits until no script has a run in flight.
func (a *app) settled(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		st, err := a.sup.Observe(ctx)
		if err != nil {
			return err
		}
		busy := false
		for _, s := range st.Scripts {
			if s.InFlight > 0 {
				busy = true
				break
			}
		}
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
