package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Log formats supported by ConfigureLogging.
const (
	ConsoleLogFormat = "console" // default
	JSONLogFormat    = "json"
)

func init() {
	// Warnings must be visible even before flags are parsed.
	zap.ReplaceGlobals(newLogger(zapcore.InfoLevel, ConsoleLogFormat))
}

// newLogger builds a logger that writes to stderr so stdout stays clean for results.
func newLogger(level zapcore.Level, format string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == JSONLogFormat {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if term.IsTerminal(int(os.Stderr.Fd())) {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// ConfigureLogging replaces the process logger according to the debug flag and format.
func ConfigureLogging(debug bool, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ConsoleLogFormat
	}
	if format != ConsoleLogFormat && format != JSONLogFormat {
		return fmt.Errorf("invalid log format '%s'. must be console or json", format)
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	zap.ReplaceGlobals(newLogger(level, format))
	return nil
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	return zap.L()
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	_ = zap.L().Sync()
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// LogInfo logs an informational message with structured fields.
func LogInfo(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}

// LogDebug logs a debug message with structured fields.
func LogDebug(msg string, fields ...zap.Field) {
	zap.L().Debug(msg, fields...)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repolens.db"
	}
	return filepath.Join(homeDir, ".repolens.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// FirstLine returns the first line of a possibly multi-line message.
func FirstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
