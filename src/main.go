package main

// Serves the planchette over ssh. Every session gets its own séance and
// planchette; question history is shared through the sqlite store.

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/google/uuid"

	"planchette/config"
	"planchette/history"
	"planchette/oracle"
	"planchette/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Could not load config", "error", err)
	}
	log.SetLevel(cfg.LogLevel)

	store, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("Could not open history", "path", cfg.DBPath, "error", err)
	}
	defer store.Close()

	responder := oracle.New(oracle.Settings{AnthropicKey: cfg.AnthropicKey, Model: cfg.Model})

	s, err := wish.NewServer(
		wish.WithAddress(cfg.Addr()),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(teaHandler(cfg, store, responder)),
			activeterm.Middleware(), // Bubble Tea apps usually require a PTY.
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal("Could not start server", "error", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Info("Starting SSH server", "host", cfg.Host, "port", cfg.Port)
	go func() {
		if err = s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("Could not start server", "error", err)
			done <- nil
		}
	}()

	<-done
	log.Info("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer func() { cancel() }()
	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error("Could not stop server", "error", err)
	}
}

// teaHandler starts a séance for each ssh session. Styles must come from
// the session's renderer so colors match the client's terminal, not ours.
func teaHandler(cfg config.Config, store *history.Store, responder oracle.Responder) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		session := uuid.NewString()
		log.Info("Séance opened", "session", session, "user", s.User())

		m := ui.New(ui.Options{
			SessionID:     session,
			Responder:     responder,
			Store:         store,
			Renderer:      bubbletea.MakeRenderer(s),
			FPS:           cfg.FPS,
			FrameInterval: cfg.FrameInterval(),
			BoardWidth:    cfg.BoardWidth,
			BoardHeight:   cfg.BoardHeight,
			AnswerTimeout: cfg.AnswerTimeout,
		})
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
