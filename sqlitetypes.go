// Package sqlitetypes infers the result-column datatypes and
// nullability of a SQL query against a live SQLite connection, by
// abstractly interpreting the VDBE bytecode `EXPLAIN` reports for it
// rather than executing the query.
package sqlitetypes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vdbetype/sqlitetypes/internal/catalog"
	"github.com/vdbetype/sqlitetypes/internal/explainer"
	"github.com/vdbetype/sqlitetypes/internal/querylog"
	"github.com/vdbetype/sqlitetypes/internal/typeinfer"
	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// TypeInfo is one inferred result column's datatype, mirroring
// SQLite's own storage-class vocabulary.
type TypeInfo struct {
	Datatype vdbe.DataType
}

func (t TypeInfo) String() string { return t.Datatype.String() }

// Option configures a call to Explain.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger attaches a structured logger; every path the interpreter
// abandons, and every unrecognized opcode it treats as a no-op, is
// reported through it at Debug/Warn level. Explain runs silently
// without one.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// Explain infers the datatype and nullability of every result column
// of query, by loading db's schema catalog, decoding `EXPLAIN query`
// into a VDBE program, and abstractly interpreting it. It issues no
// writes and never runs query itself.
func Explain(ctx context.Context, db *sql.DB, query string, opts ...Option) ([]TypeInfo, []*bool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	runID := uuid.New().String()
	log := o.log
	if log != nil {
		log = log.WithField("explain_id", runID)
	}

	cat, err := catalog.Load(ctx, db, log)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlitetypes: loading schema catalog: %w", err)
	}

	program, err := explainer.Explain(ctx, db, query)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlitetypes: running EXPLAIN: %w", err)
	}

	var qlog querylog.Logger = querylog.NopLogger{}
	if log != nil {
		qlog = querylog.NewLogrusLogger(log, query)
	}

	states := typeinfer.Run(program, cat, qlog)
	datatypes, nullable := typeinfer.Merge(states)

	types := make([]TypeInfo, len(datatypes))
	for i, dt := range datatypes {
		types[i] = TypeInfo{Datatype: dt}
	}
	return types, nullable, nil
}
