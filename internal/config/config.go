// Package config reads server settings from the environment and command line.
// Flags win over environment variables, which win over defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr         string
	AllowOrigins string
	DataDir      string
	InMemory     bool
	LogLevel     log.Level
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:         ":3000",
		AllowOrigins: "http://localhost:5173",
		DataDir:      "data",
		LogLevel:     log.LevelInfo,
	}
}

// Load builds a Config from getenv (usually os.Getenv) and args (without the program name).
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if v := getenv("CHESS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("CHESS_ALLOW_ORIGINS"); v != "" {
		cfg.AllowOrigins = v
	}
	if v := getenv("CHESS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	level := getenv("CHESS_LOG_LEVEL")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.AllowOrigins, "origins", cfg.AllowOrigins, "comma separated CORS origins")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "results database directory")
	fs.BoolVar(&cfg.InMemory, "memory", false, "keep results in memory only")
	fs.StringVar(&level, "log-level", level, "trace, debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if level != "" {
		l, err := ParseLevel(level)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = l
	}
	return cfg, nil
}

// Origins splits AllowOrigins for the websocket origin check.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return log.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
