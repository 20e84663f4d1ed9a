// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config holds everything the servers need at startup
type Config struct {
	Host        string
	Port        string
	HostKeyPath string
	DBPath      string

	FPS         int
	BoardWidth  float64
	BoardHeight float64

	AnthropicKey  string
	Model         string
	AnswerTimeout time.Duration

	LogLevel log.Level
}

// Defaults returns the configuration used when nothing is set
func Defaults() Config {
	return Config{
		Host:          "localhost",
		Port:          "23234",
		HostKeyPath:   ".ssh/id_ed25519",
		DBPath:        "planchette.db",
		FPS:           60,
		BoardWidth:    1200,
		BoardHeight:   800,
		AnswerTimeout: 30 * time.Second,
		LogLevel:      log.InfoLevel,
	}
}

// Load reads .env files (if present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
		log.Debug("No .env file found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("PLANCHETTE_HOST", &cfg.Host)
	str("PLANCHETTE_PORT", &cfg.Port)
	str("PLANCHETTE_HOST_KEY", &cfg.HostKeyPath)
	str("PLANCHETTE_DB", &cfg.DBPath)
	str("ANTHROPIC_API_KEY", &cfg.AnthropicKey)
	str("PLANCHETTE_MODEL", &cfg.Model)

	if v := getenv("PLANCHETTE_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil || fps <= 0 || fps > 240 {
			return Config{}, fmt.Errorf("invalid PLANCHETTE_FPS %q: want 1-240", v)
		}
		cfg.FPS = fps
	}

	for key, dst := range map[string]*float64{
		"PLANCHETTE_BOARD_WIDTH":  &cfg.BoardWidth,
		"PLANCHETTE_BOARD_HEIGHT": &cfg.BoardHeight,
	} {
		v := getenv(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q: want a positive number", key, v)
		}
		*dst = f
	}

	if v := getenv("PLANCHETTE_ANSWER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid PLANCHETTE_ANSWER_TIMEOUT %q: %w", v, errOrPositive(err))
		}
		cfg.AnswerTimeout = d
	}

	if v := getenv("PLANCHETTE_LOG_LEVEL"); v != "" {
		lvl, err := log.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PLANCHETTE_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	return cfg, nil
}

// Addr is host:port for the SSH listener
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// FrameInterval is the time between animation frames
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

func errOrPositive(err error) error {
	if err != nil {
		return err
	}
	return errors.New("must be positive")
}
