package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Init replaces the process logger. format is "json" or "text".
func Init(level, format string) {
	InitWithWriter(os.Stdout, level, format)
}

func InitWithWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// L returns the structured logger for callers that want attributes.
func L() *slog.Logger {
	return current.Load()
}

func Info(format string, v ...interface{}) {
	L().Info(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	L().Debug(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	L().Warn(fmt.Sprintf(format, v...))
}

// LogOrderError is used where an order side effect failed after the order itself was persisted.
func LogOrderError(orderID, action string, err error) {
	L().Warn("order side effect failed", "order_id", orderID, "action", action, "error", err)
}
