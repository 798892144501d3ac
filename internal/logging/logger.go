package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vocalsub/internal/config"
)

// LogFileName is the file written inside the configured log directory.
const LogFileName = "vocalsub.log"

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format is "console" or "json" and applies to every output.
	Format string
	// FileFormat overrides Format for file outputs.
	FileFormat string
	// OutputPaths receive every record at Level or above. "stdout" and
	// "stderr" name the process streams; anything else is a file path.
	OutputPaths []string
	// ErrorOutputPaths receive error records only. Paths already listed in
	// OutputPaths are not written twice.
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger with one handler per distinct output.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format, err := normalizeFormat(opts.Format, "console")
	if err != nil {
		return nil, err
	}
	fileFormat, err := normalizeFormat(opts.FileFormat, format)
	if err != nil {
		return nil, err
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 && len(opts.ErrorOutputPaths) == 0 {
		outputs = []string{"stderr"}
	}

	seen := make(map[string]struct{})
	var sinks []sink
	add := func(path string, errorsOnly bool) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		if _, dup := seen[path]; dup {
			return nil
		}
		seen[path] = struct{}{}

		w, isFile, err := openOutput(path)
		if err != nil {
			return err
		}
		f := format
		if isFile {
			f = fileFormat
		}
		sinks = append(sinks, sink{handler: newHandler(f, w, levelVar, addSource), errorsOnly: errorsOnly})
		return nil
	}
	for _, path := range outputs {
		if err := add(path, false); err != nil {
			return nil, err
		}
	}
	for _, path := range opts.ErrorOutputPaths {
		if err := add(path, true); err != nil {
			return nil, err
		}
	}

	if len(sinks) == 1 && !sinks[0].errorsOnly {
		return slog.New(sinks[0].handler), nil
	}
	return slog.New(&fanoutHandler{sinks: sinks}), nil
}

// NewFromConfig logs to stderr in the configured format and, when a log
// directory is set, appends JSON lines to LogFileName inside it.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	opts := Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		FileFormat:  "json",
		OutputPaths: []string{"stderr"},
	}
	if logDir := strings.TrimSpace(cfg.Paths.LogDir); logDir != "" {
		opts.OutputPaths = append(opts.OutputPaths, filepath.Join(logDir, LogFileName))
	}
	return New(opts)
}

func normalizeFormat(value, fallback string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(value))
	if format == "" {
		format = fallback
	}
	switch format {
	case "console", "json":
		return format, nil
	default:
		return "", fmt.Errorf("log format: unsupported value %q", value)
	}
}

func newHandler(format string, w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	if format == "json" {
		return newJSONHandler(w, lvl, addSource)
	}
	return newPrettyHandler(w, lvl, addSource, shouldColorize(w))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(path string) (io.Writer, bool, error) {
	switch path {
	case "stdout":
		return os.Stdout, false, nil
	case "stderr":
		return os.Stderr, false, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, false, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, true, nil
}
