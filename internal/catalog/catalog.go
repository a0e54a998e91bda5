// Package catalog loads the schema-derived column types the
// interpreter seeds cursors with when they open a real table or index
// (as opposed to an ephemeral/transient cursor, whose shape is
// inferred purely from the bytecode).
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	radix "github.com/armon/go-radix"
	"github.com/sirupsen/logrus"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

// BlockKey identifies one root page: a database number (0=main,
// 1=temp) paired with the root page number sqlite_schema reports for
// a table or index.
type BlockKey struct {
	DBNum    int64
	RootPage int64
}

// Catalog is the schema-wide column-type map produced by Load: for
// every root page, the ColumnType SQLite's declared types and
// not-null flags imply for each column position.
type Catalog struct {
	blocks map[BlockKey]map[int64]vdbe.ColumnType

	// names indexes root pages by table/index name prefix, so CLI
	// tooling (cmd/sqlitetypes's `describe` command) can offer
	// completion/lookup without a linear scan.
	names *radix.Tree
}

// rootBlockColumnsQuery unions main and temp sqlite_schema, then joins
// each table with pragma_table_info and each index with
// pragma_index_info+pragma_table_info, producing one row per
// (db-number, root-page, column-index, declared-type, not-null).
const rootBlockColumnsQuery = `
SELECT s.dbnum, s.rootpage, col.cid as colnum, col.type, col."notnull"
FROM (
    select 1 dbnum, tss.* from temp.sqlite_schema tss
    UNION ALL select 0 dbnum, mss.* from main.sqlite_schema mss
    ) s
JOIN pragma_table_info(s.name) AS col
WHERE s.type = 'table'
UNION ALL
SELECT s.dbnum, s.rootpage, idx.seqno as colnum, col.type, col."notnull"
FROM (
    select 1 dbnum, tss.* from temp.sqlite_schema tss
    UNION ALL select 0 dbnum, mss.* from main.sqlite_schema mss
    ) s
JOIN pragma_index_info(s.name) AS idx
LEFT JOIN pragma_table_info(s.tbl_name) as col
  ON col.cid = idx.cid
WHERE s.type = 'index'
`

// nameQuery pairs every root page with its schema object name and
// type, feeding the Catalog's name index.
const nameQuery = `
select 1 dbnum, tss.rootpage, tss.name, tss.type from temp.sqlite_schema tss
UNION ALL
select 0 dbnum, mss.rootpage, mss.name, mss.type from main.sqlite_schema mss
`

// Load runs the catalog queries against db and builds a Catalog. It
// issues two round trips: one for the column/nullability union used
// by the interpreter, one for the lighter name index used by tooling.
func Load(ctx context.Context, db *sql.DB, log logrus.FieldLogger) (*Catalog, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	rows, err := db.QueryContext(ctx, rootBlockColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: loading root block columns: %w", err)
	}
	defer rows.Close()

	blocks := make(map[BlockKey]map[int64]vdbe.ColumnType)
	for rows.Next() {
		var dbnum, rootpage, colnum int64
		var declared sql.NullString
		var notNull sql.NullBool
		if err := rows.Scan(&dbnum, &rootpage, &colnum, &declared, &notNull); err != nil {
			return nil, fmt.Errorf("catalog: scanning root block column: %w", err)
		}

		key := BlockKey{DBNum: dbnum, RootPage: rootpage}
		cols, ok := blocks[key]
		if !ok {
			cols = make(map[int64]vdbe.ColumnType)
			blocks[key] = cols
		}

		dt := vdbe.ParseDataType(declared.String)
		nullable := true
		if notNull.Valid {
			nullable = !notNull.Bool
		}
		cols[colnum] = vdbe.SingleColumn(dt, &nullable)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterating root block columns: %w", err)
	}

	names := radix.New()
	nameRows, err := db.QueryContext(ctx, nameQuery)
	if err != nil {
		return nil, fmt.Errorf("catalog: loading schema names: %w", err)
	}
	defer nameRows.Close()

	for nameRows.Next() {
		var dbnum, rootpage int64
		var name, objType string
		if err := nameRows.Scan(&dbnum, &rootpage, &name, &objType); err != nil {
			return nil, fmt.Errorf("catalog: scanning schema name: %w", err)
		}
		names.Insert(name, BlockKey{DBNum: dbnum, RootPage: rootpage})
		log.WithFields(logrus.Fields{
			"name": name,
			"type": objType,
			"db":   dbnum,
		}).Debug("catalog: indexed schema object")
	}
	if err := nameRows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterating schema names: %w", err)
	}

	return &Catalog{blocks: blocks, names: names}, nil
}

// RootBlockColumns returns the sparse column map SQLite reports for
// the given database number and root page, or (nil, false) if no
// schema object claims that root page.
func (c *Catalog) RootBlockColumns(dbnum, rootpage int64) (map[int64]vdbe.ColumnType, bool) {
	cols, ok := c.blocks[BlockKey{DBNum: dbnum, RootPage: rootpage}]
	return cols, ok
}

// LookupByName resolves a table or index name (exact match) to its
// root page key, using the radix-indexed name table.
func (c *Catalog) LookupByName(name string) (BlockKey, bool) {
	v, ok := c.names.Get(name)
	if !ok {
		return BlockKey{}, false
	}
	return v.(BlockKey), true
}

// NamesWithPrefix lists every schema object name sharing the given
// prefix, ordered lexicographically. Used by the CLI's `describe`
// completion.
func (c *Catalog) NamesWithPrefix(prefix string) []string {
	var out []string
	c.names.WalkPrefix(prefix, func(s string, v interface{}) bool {
		out = append(out, s)
		return false
	})
	return out
}
