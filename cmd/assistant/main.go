package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/syncoria/assistant-go/internal/config"
	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/logger"
	"github.com/syncoria/assistant-go/internal/session"
	"github.com/syncoria/assistant-go/internal/ui"
)

func main() {

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// Initialize backend client and session store
	gw := gateway.New(cfg.Backend.BaseURL, cfg.Backend.IncludeDebug)
	store := session.NewStore(gw, cfg.Backend.HistoryLimit)

	logger.L.Info("starting assistant", "backend", cfg.Backend.BaseURL, "streaming", cfg.Backend.Streaming)

	// Start the terminal UI
	p := tea.NewProgram(ui.New(cfg.Backend, gw, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
