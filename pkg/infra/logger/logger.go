package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultDir        = "logs"
	fileBufferSize    = 32 * 1024
	consoleBufferSize = 1000
)

type Config struct {
	Level   string
	Dir     string
	Console bool
}

// Logger is a logrus logger whose async sinks must be flushed on shutdown.
type Logger struct {
	*logrus.Logger
	file    *AsyncFileWriter
	console *AsyncConsoleHook
}

// NewLogger writes JSON lines to <dir>/<name>.log and optionally mirrors them to
// stdout. LOG_LEVEL in the environment overrides the configured level.
func NewLogger(name string, cfg Config) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	levelName := cfg.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		levelName = env
	}
	level := logrus.InfoLevel
	if levelName != "" {
		parsed, err := logrus.ParseLevel(levelName)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
		}
		level = parsed
	}
	l.SetLevel(level)

	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid log name %q", name)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	file, err := NewAsyncFileWriter(filepath.Join(dir, name+".log"), fileBufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	l.SetOutput(file)

	out := &Logger{Logger: l, file: file}
	if cfg.Console {
		out.console = NewAsyncConsoleHook(consoleBufferSize)
		l.AddHook(out.console)
	}
	return out, nil
}

func (l *Logger) Close() error {
	if l.console != nil {
		l.console.Close()
	}
	return l.file.Close()
}
