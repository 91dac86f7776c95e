package testsupport

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// LogEntry is one captured log line. Key/value args are folded into Fields.
type LogEntry struct {
	Logger string
	Level  string
	Msg    string
	Fields map[string]any
}

// LogSink is a LoggerProvider that keeps every entry in memory.
type LogSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ interfaces.LoggerProvider = (*LogSink)(nil)

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) GetLogger(name string) interfaces.Logger {
	return sinkLogger{sink: s, name: name}
}

// Entries returns a snapshot of everything logged so far.
func (s *LogSink) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Find returns the first entry with msg.
func (s *LogSink) Find(msg string) (LogEntry, bool) {
	for _, entry := range s.Entries() {
		if entry.Msg == msg {
			return entry, true
		}
	}
	return LogEntry{}, false
}

type sinkLogger struct {
	sink   *LogSink
	name   string
	fields map[string]any
}

func (l sinkLogger) Trace(msg string, args ...any) { l.write("trace", msg, args) }
func (l sinkLogger) Debug(msg string, args ...any) { l.write("debug", msg, args) }
func (l sinkLogger) Info(msg string, args ...any)  { l.write("info", msg, args) }
func (l sinkLogger) Warn(msg string, args ...any)  { l.write("warn", msg, args) }
func (l sinkLogger) Error(msg string, args ...any) { l.write("error", msg, args) }
func (l sinkLogger) Fatal(msg string, args ...any) { l.write("fatal", msg, args) }

func (l sinkLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return sinkLogger{sink: l.sink, name: l.name, fields: merged}
}

func (l sinkLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l sinkLogger) write(level, msg string, args []any) {
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = make(map[string]any, len(args)/2)
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.sink.mu.Lock()
	l.sink.entries = append(l.sink.entries, LogEntry{Logger: l.name, Level: level, Msg: msg, Fields: fields})
	l.sink.mu.Unlock()
}
