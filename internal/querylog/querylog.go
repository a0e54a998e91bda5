// Package querylog records per-path outcomes of the abstract
// interpreter's state-space search: the instruction history a path
// took, the result row it produced (if any), and any opcode the
// interpreter doesn't know how to interpret.
package querylog

import (
	"strings"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// Logger receives path outcomes from the interpreter. Enabled lets the
// interpreter skip building history slices on the hot path when
// nothing will consume them.
type Logger interface {
	Enabled() bool
	AddResult(history []vdbe.Instruction, result []vdbe.ResultColumn)
	AddUnknownOperation(instr vdbe.Instruction)
}

// NopLogger discards everything. It's the default when the caller
// doesn't care about path diagnostics.
type NopLogger struct{}

func (NopLogger) Enabled() bool                                     { return false }
func (NopLogger) AddResult([]vdbe.Instruction, []vdbe.ResultColumn) {}
func (NopLogger) AddUnknownOperation(vdbe.Instruction)              {}

// LogrusLogger logs path outcomes through a logrus.FieldLogger, in the
// same WithError/Debugf idiom the rest of this module uses.
type LogrusLogger struct {
	log   logrus.FieldLogger
	query string

	unknown map[string]int
}

// NewLogrusLogger returns a Logger that reports against query,
// deduplicating repeated unknown-opcode warnings.
func NewLogrusLogger(log logrus.FieldLogger, query string) *LogrusLogger {
	return &LogrusLogger{log: log, query: query, unknown: make(map[string]int)}
}

func (l *LogrusLogger) Enabled() bool {
	return l.log != nil
}

func (l *LogrusLogger) AddResult(history []vdbe.Instruction, result []vdbe.ResultColumn) {
	if l.log == nil {
		return
	}
	addrs := make([]string, len(history))
	for i, instr := range history {
		addrs[i] = instr.Op
	}
	if result == nil {
		l.log.WithFields(logrus.Fields{
			"query": l.query,
			"path":  strings.Join(addrs, "->"),
		}).Debug("query plan: path terminated without a result")
		return
	}
	l.log.WithFields(logrus.Fields{
		"query":  l.query,
		"path":   strings.Join(addrs, "->"),
		"result": pretty.Sprint(result),
	}).Debug("query plan: path reached ResultRow")
}

func (l *LogrusLogger) AddUnknownOperation(instr vdbe.Instruction) {
	if l.log == nil {
		return
	}
	l.unknown[instr.Op]++
	if l.unknown[instr.Op] > 1 {
		return
	}
	l.log.WithFields(logrus.Fields{
		"query":  l.query,
		"opcode": instr.Op,
	}).Warn("query plan: unrecognized opcode treated as no-op")
}
