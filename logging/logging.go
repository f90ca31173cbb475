// Package logging wires a subsys.Map in front of a zap sink.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/yanet-platform/logsubsys/subsys"
)

// Init initializes the logging subsystem.
//
// It builds the zap sink, the gating table for the given descriptor table and
// applies the configured subsystem rules.
func Init(cfg *Config, descs []subsys.Descriptor) (*Logger, zap.AtomicLevel, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()

	if term.IsTerminal(int(os.Stderr.Fd())) {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(cfg.Level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log, err := New(logger, descs, cfg)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	return log, config.Level, nil
}

// Logger dispatches subsystem messages to a zap sink.
type Logger struct {
	subsystems *subsys.Map
	log        *zap.Logger
	subs       []*SubLogger
	recent     *recent
}

// New creates a new Logger on top of an existing zap logger.
func New(log *zap.Logger, descs []subsys.Descriptor, cfg *Config) (*Logger, error) {
	subsystems, err := subsys.New(descs)
	if err != nil {
		return nil, fmt.Errorf("failed to build subsystem map: %w", err)
	}
	if err := applyRules(subsystems, cfg.Subsystems); err != nil {
		return nil, fmt.Errorf("failed to apply subsystem levels: %w", err)
	}

	m := &Logger{
		subsystems: subsystems,
		log:        log,
		subs:       make([]*SubLogger, subsystems.Len()),
		recent:     newRecent(cfg.Recent),
	}
	for id, d := range subsystems.All() {
		m.subs[id] = &SubLogger{
			id:     id,
			name:   d.Name,
			parent: m,
			log:    log.Named(d.Name).Sugar(),
		}
	}

	return m, nil
}

// Sugar returns the sink as a sugared logger, bypassing subsystem gating.
func (m *Logger) Sugar() *zap.SugaredLogger {
	return m.log.Sugar()
}

// Map returns the underlying gating table.
func (m *Logger) Map() *subsys.Map {
	return m.subsystems
}

// Sub returns the logger of the given subsystem.
//
// An out-of-range subsystem yields the logger of subsystem 0.
func (m *Logger) Sub(id subsys.ID) *SubLogger {
	if id >= subsys.ID(len(m.subs)) {
		id = 0
	}
	return m.subs[id]
}

// Named returns the logger of the subsystem with the given name.
func (m *Logger) Named(name string) (*SubLogger, bool) {
	id, ok := m.subsystems.Lookup(name)
	if !ok {
		return nil, false
	}
	return m.subs[id], true
}

// ShouldGather reports whether a message at the given level for the given
// subsystem should be produced.
func (m *Logger) ShouldGather(id subsys.ID, level int) bool {
	return m.subsystems.ShouldGather(id, level)
}

// DumpRecent writes every gathered-but-not-logged message to the sink,
// oldest first, and clears the buffer.
//
// Returns the number of dumped messages.
func (m *Logger) DumpRecent() int {
	entries := m.recent.drain()
	for _, e := range entries {
		kv := make([]any, 0, len(e.kv)+6)
		kv = append(kv, "lvl", e.level, "gathered_at", e.ts, "recent", true)
		kv = append(kv, e.kv...)

		m.subs[e.sub].log.Logw(SinkLevel(e.level), e.msg, kv...)
	}

	return len(entries)
}

// Sync flushes the sink.
func (m *Logger) Sync() error {
	return m.log.Sync()
}

// SubLogger logs on behalf of a single subsystem.
type SubLogger struct {
	id     subsys.ID
	name   string
	parent *Logger
	log    *zap.SugaredLogger
}

// ID returns the subsystem ID.
func (m *SubLogger) ID() subsys.ID {
	return m.id
}

// Name returns the subsystem name.
func (m *SubLogger) Name() string {
	return m.name
}

// Enabled reports whether a message at the given level would be produced.
func (m *SubLogger) Enabled(level int) bool {
	return m.parent.subsystems.ShouldGather(m.id, level)
}

// Logf formats and produces a message at the given level, if gathered.
//
// Messages at or below the subsystem's log level are written to the sink
// immediately, the rest are kept in memory until DumpRecent.
func (m *SubLogger) Logf(level int, template string, args ...any) {
	if !m.parent.subsystems.ShouldGather(m.id, level) {
		return
	}

	m.emit(level, fmt.Sprintf(template, args...), nil)
}

// Logw produces a message with additional context at the given level, if
// gathered.
func (m *SubLogger) Logw(level int, msg string, keysAndValues ...any) {
	if !m.parent.subsystems.ShouldGather(m.id, level) {
		return
	}

	m.emit(level, msg, keysAndValues)
}

// Gate returns a gate for a call site logging at a fixed level.
func (m *SubLogger) Gate(level int) subsys.Gate {
	return m.parent.subsystems.Gate(m.id, level)
}

// Errorf produces an unconditionally gathered error message.
func (m *SubLogger) Errorf(template string, args ...any) {
	if !m.parent.subsystems.ShouldGatherStatic(m.id, errorLevel) {
		return
	}

	m.emit(errorLevel, fmt.Sprintf(template, args...), nil)
}

func (m *SubLogger) emit(level int, msg string, keysAndValues []any) {
	if level > int(m.parent.subsystems.LogLevel(m.id)) {
		m.parent.recent.push(m.id, level, msg, keysAndValues)
		return
	}

	kv := make([]any, 0, len(keysAndValues)+2)
	kv = append(kv, "lvl", level)
	kv = append(kv, keysAndValues...)
	m.log.Logw(SinkLevel(level), msg, kv...)
}

const errorLevel = -1

// SinkLevel maps a numeric subsystem level to a zap level.
//
// Negative levels are errors, 0 is a warning, 1..4 are informational and
// anything above is debug output.
func SinkLevel(level int) zapcore.Level {
	switch {
	case level < 0:
		return zapcore.ErrorLevel
	case level == 0:
		return zapcore.WarnLevel
	case level < 5:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
