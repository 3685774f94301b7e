package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record as "app"
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level; anything slog.Level parses, such as "warn" or "info+2"
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name ("svc.authsvc:debug,repo:warn")
	Filter string `env:"FILTER" default:""`

	// JSON switches to slog's JSON handler
	JSON bool `env:"JSON" default:"false"`

	// NoColor disables ANSI colours; forced for file output
	NoColor bool `env:"NO_COLOR" default:"false"`

	// OutputHandle, when set, takes precedence over Output
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue

	current   LoggerConfig
	currentMu sync.Mutex
)

// Configure installs cfg as the global logging configuration. Loggers obtained
// before the call keep their old settings, so call it first thing in main.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	cfg = configure(cfg, appName)

	GetLogger("infra.logging.logger").With(Group("config",
		"appName", cfg.AppName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
		"noColor", cfg.NoColor,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig, appName string) LoggerConfig {
	cfg.AppName = appName

	if cfg.OutputHandle == nil {
		out, isFile, err := openOutput(cfg.Output)
		if err != nil {
			panic(err)
		}

		cfg.OutputHandle = out
		cfg.NoColor = cfg.NoColor || isFile
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	slog.SetLogLoggerLevel(parseLogLevel(cfg.Level, LevelInfo))

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()

	return cfg
}

func openOutput(output string) (io.Writer, bool, error) {
	switch output {
	case "", "discard":
		return io.Discard, false, nil
	case "stdout":
		return os.Stdout, false, nil
	case "stderr":
		return os.Stderr, false, nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, false, fmt.Errorf("open log file: %w", err)
	}

	return file, true, nil
}

func snapshot() LoggerConfig {
	currentMu.Lock()
	defer currentMu.Unlock()

	return current
}

// GetLogLogger adapts logger for APIs that want a *log.Logger, such as http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// NewNopLogger returns a logger that drops every record. GetLogger hands one
// out until Configure has been called, which keeps tests quiet.
func NewNopLogger() Logger {
	return slog.New(slog.DiscardHandler)
}

// GetLogger returns a logger tagged with name under the current configuration.
// Names are dotted paths ("svc.authsvc.token_service") that Filter can match
// by prefix.
func GetLogger(name string) Logger {
	cfg := snapshot()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := parseLogLevel(cfg.Level, LevelInfo)

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	} else {
		handler = NewConsoleHandler(cfg.OutputHandle, level, parseFilter(cfg.Filter))
	}

	handler = NewRedactingHandler(handler)
	handler = NewContextHandler(handler)

	logger := slog.New(handler)

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With("logger", name)
}

// parseFilter reads "name:level" pairs. Malformed pairs are skipped and an
// unparsable level means debug.
func parseFilter(filter string) map[string]slog.Level {
	levels := make(map[string]slog.Level)

	for _, pair := range strings.Split(filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" {
			continue
		}

		levels[name] = parseLogLevel(level, LevelDebug)
	}

	return levels
}

func parseLogLevel(s string, fallback Level) Level {
	var level Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}

	return level
}
