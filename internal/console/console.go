// Package console renders human-facing progress output: stage headers,
// highlighted values and verdicts. Structured diagnostics go through slog.
package console

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// NewLogger builds the process logger. Unknown levels fall back to info and
// unknown formats to text.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// Console writes progress lines to an output stream.
type Console struct {
	out io.Writer
}

// New creates a Console writing to out.
func New(out io.Writer) *Console {
	return &Console{out: out}
}

// Header announces a pipeline stage.
func (c *Console) Header(title string) {
	fmt.Fprintf(c.out, "\n%s %s\n", color.New(color.FgBlue, color.Bold).Sprint("❯"), color.New(color.Bold).Sprint(title))
}

// Printf writes a plain progress line.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Success writes a green verdict line.
func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.out, color.GreenString(format, args...))
}

// Warn writes a yellow line.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintln(c.out, color.YellowString(format, args...))
}

// Failure writes a magenta verdict line.
func (c *Console) Failure(format string, args ...any) {
	fmt.Fprintln(c.out, color.MagentaString(format, args...))
}

// Value highlights a value inside a progress line.
func Value(v any) string {
	return color.YellowString("%v", v)
}
