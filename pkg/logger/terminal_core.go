package logger

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// TerminalPrefix marks a message meant for the operator rather than the log.
const TerminalPrefix = "terminal prompt:"

// terminalConsoleCore wraps a zapcore.Core and renders "terminal prompt" logs
// as plain text for human-friendly CLI output.
type terminalConsoleCore struct {
	base zapcore.Core
	out  io.Writer
	mu   *sync.Mutex
}

func newTerminalConsoleCore(base zapcore.Core, out io.Writer) zapcore.Core {
	return &terminalConsoleCore{base: base, out: out, mu: &sync.Mutex{}}
}

func (c *terminalConsoleCore) Enabled(level zapcore.Level) bool {
	return c.base.Enabled(level)
}

func (c *terminalConsoleCore) With(fields []zapcore.Field) zapcore.Core {
	return &terminalConsoleCore{base: c.base.With(fields), out: c.out, mu: c.mu}
}

func (c *terminalConsoleCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if strings.HasPrefix(entry.Message, TerminalPrefix) {
		return ce.AddCore(entry, c)
	}
	return c.base.Check(entry, ce)
}

func (c *terminalConsoleCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if strings.HasPrefix(entry.Message, TerminalPrefix) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.writeTerminal(entry.Message, fields)
		return nil
	}
	return c.base.Write(entry, fields)
}

func (c *terminalConsoleCore) Sync() error {
	return c.base.Sync()
}

// writeTerminal prints the message text, then an "output" field verbatim,
// then any other fields as sorted key: value lines. Fields attached with
// With are not printed.
func (c *terminalConsoleCore) writeTerminal(message string, fields []zapcore.Field) {
	text := strings.TrimSpace(strings.TrimPrefix(message, TerminalPrefix))
	if text != "" {
		c.printLines(text)
	}

	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, field := range fields {
			field.AddTo(enc)
		}

		if output, ok := enc.Fields["output"]; ok {
			c.printLines(fmt.Sprint(output))
			delete(enc.Fields, "output")
		}

		keys := make([]string, 0, len(enc.Fields))
		for key := range enc.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			c.printLines(fmt.Sprintf("%s: %v", key, enc.Fields[key]))
		}
	}

	if text == "" && len(fields) == 0 {
		fmt.Fprintln(c.out)
	}
}

func (c *terminalConsoleCore) printLines(value string) {
	if value == "" {
		fmt.Fprintln(c.out)
		return
	}
	for _, line := range strings.Split(value, "\n") {
		fmt.Fprintln(c.out, line)
	}
}
