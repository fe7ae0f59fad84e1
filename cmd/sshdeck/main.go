// Package main provides the entry point for the sshdeck TUI.
//
// sshdeck is a terminal SSH profile manager. Dialogs and drawers are driven
// by a process-wide overlay orchestrator; a single Escape listener closes
// the topmost dialog unless it declares itself non-dismissable.
//
// Usage:
//
//	sshdeck
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/app"
	"github.com/sshdeck/sshdeck/internal/config"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	vault, err := app.NewVault(filepath.Join(filepath.Dir(cfg.Database.Path), "master"))
	if err != nil {
		return err
	}

	// The notify hook pokes the program so queries observe fresh state on
	// the next frame; p is assigned before Run starts delivering messages.
	var p *tea.Program
	orch := overlay.New(
		overlay.WithLogger(logger),
		overlay.WithTransition(time.Duration(cfg.UI.TransitionMs)*time.Millisecond),
		overlay.WithNotify(func() {
			if p != nil {
				p.Send(overlay.StateChangedMsg{})
			}
		}),
	)

	model, err := app.New(cfg, logger, st, vault, orch)
	if err != nil {
		return err
	}

	p = tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// newLogger writes structured logs to a file so they stay off the
// alternate screen.
func newLogger() *slog.Logger {
	dir := filepath.Join(os.Getenv("HOME"), ".local", "state", "sshdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return slog.Default()
	}
	f, err := os.OpenFile(filepath.Join(dir, "sshdeck.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(f, nil))
}
