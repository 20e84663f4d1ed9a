package main

// Runs a séance on the local terminal.

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"planchette/config"
	"planchette/history"
	"planchette/oracle"
	"planchette/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Uh oh:", err)
		os.Exit(1)
	}

	// the alt screen owns the terminal
	f, err := os.OpenFile("planchette.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Println("Uh oh:", err)
		os.Exit(1)
	}
	defer f.Close()
	logger := log.NewWithOptions(f, log.Options{Level: cfg.LogLevel, ReportTimestamp: true})

	store, err := history.Open(cfg.DBPath)
	if err != nil {
		fmt.Println("Uh oh:", err)
		os.Exit(1)
	}
	defer store.Close()

	m := ui.New(ui.Options{
		Responder:     oracle.New(oracle.Settings{AnthropicKey: cfg.AnthropicKey, Model: cfg.Model}),
		Store:         store,
		FPS:           cfg.FPS,
		FrameInterval: cfg.FrameInterval(),
		BoardWidth:    cfg.BoardWidth,
		BoardHeight:   cfg.BoardHeight,
		AnswerTimeout: cfg.AnswerTimeout,
		Logger:        logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("Uh oh:", err)
		os.Exit(1)
	}
}
