package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	FileName      = "lessfeed.log"
	maxSizeMB     = 10
	maxBackups    = 3
	maxAgeDays    = 28
	defaultPrefix = "lessfeed"
)

// Logger is the process-wide logger. It stays nil until Init succeeds and
// the helpers below drop messages until then.
var Logger *log.Logger

type Config struct {
	// Debug lowers the level to debug and mirrors output to stderr.
	Debug bool
	// ConfigDir holds the logs/ directory.
	ConfigDir string
}

// Path returns the log file location under configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, "logs", FileName)
}

func Init(cfg Config) error {
	path := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
		out = io.MultiWriter(os.Stderr, out)
	}

	Logger = log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          defaultPrefix,
	})
	return nil
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
