// keywatch polls reddit, hacker news, and duckduckgo for a tracked
// keyword set and streams matching items into a terminal feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/keywatch/internal/config"
	"github.com/abelbrown/keywatch/internal/coord"
	"github.com/abelbrown/keywatch/internal/fetch"
	"github.com/abelbrown/keywatch/internal/logging"
	"github.com/abelbrown/keywatch/internal/store"
	"github.com/abelbrown/keywatch/internal/ui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data directory: ~/.keywatch/ (logs + item archive)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("Failed to get home directory: %v", err)
	}
	dataDir := filepath.Join(homeDir, ".keywatch")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fatal("Failed to create data directory: %v", err)
	}

	if err := logging.Init(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()
	logging.Info("keywatch starting")

	// Item archive
	st, err := store.Open(filepath.Join(dataDir, "keywatch.db"))
	if err != nil {
		fatal("Failed to open item archive: %v", err)
	}
	defer st.Close()

	// Settings live in the working directory so save/load/set default
	// operate on files the user can see.
	workDir, err := os.Getwd()
	if err != nil {
		fatal("Failed to get working directory: %v", err)
	}
	cfg := config.NewManager(workDir)
	switch err := cfg.Load(config.CanonicalFile); {
	case errors.Is(err, config.ErrNotFound):
		logging.Info("no settings file, starting empty", "file", config.CanonicalFile)
	case err != nil:
		logging.Warn("settings file unusable, starting with defaults", "error", err)
	default:
		logging.Info("settings loaded", "file", config.CanonicalFile,
			"interval", cfg.Interval())
	}

	adapters := fetch.DefaultAdapters(30 * time.Second)
	coordinator := coord.New(cfg, adapters, st)

	app := ui.New(cfg, coordinator, st)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	coordinator.Start(ctx, p)

	if _, err := p.Run(); err != nil {
		logging.Error("application error", "error", err)
		fatal("Error: %v", err)
	}

	cancel()
	coordinator.Wait()
	logging.Info("keywatch exiting")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
