package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/suite"

	"github.com/vdbetype/sqlitetypes/internal/vdbe"
)

type CatalogTestSuite struct {
	suite.Suite
	db *sql.DB
}

func (s *CatalogTestSuite) SetupTest() {
	db, err := sql.Open("sqlite3", ":memory:")
	s.Require().NoError(err)
	s.db = db
}

func (s *CatalogTestSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *CatalogTestSuite) exec(stmt string) {
	_, err := s.db.Exec(stmt)
	s.Require().NoError(err)
}

func TestCatalogTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

// S1: root page columns for a plain table.
func (s *CatalogTestSuite) TestRootBlockColumns() {
	s.exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b_null TEXT NULL, b TEXT NOT NULL)`)

	cat, err := Load(context.Background(), s.db, nil)
	s.Require().NoError(err)

	key, ok := cat.LookupByName("t")
	s.Require().True(ok)
	s.Equal(int64(0), key.DBNum)

	cols, ok := cat.RootBlockColumns(key.DBNum, key.RootPage)
	s.Require().True(ok)
	s.Require().Len(cols, 3)

	s.Equal(vdbe.Int64, cols[0].Datatype)
	s.True(*cols[0].Nullable)

	s.Equal(vdbe.Text, cols[1].Datatype)
	s.True(*cols[1].Nullable)

	s.Equal(vdbe.Text, cols[2].Datatype)
	s.False(*cols[2].Nullable)
}

// S2: NUMERIC declared type parses to Null, nullability still tracked.
func (s *CatalogTestSuite) TestPrimaryKeyNullability() {
	s.exec(`CREATE TABLE t2(a INTEGER NOT NULL, b_null NUMERIC NULL, b NUMERIC NOT NULL)`)

	cat, err := Load(context.Background(), s.db, nil)
	s.Require().NoError(err)

	key, ok := cat.LookupByName("t2")
	s.Require().True(ok)
	cols, ok := cat.RootBlockColumns(key.DBNum, key.RootPage)
	s.Require().True(ok)

	s.Equal(vdbe.Int64, cols[0].Datatype)
	s.False(*cols[0].Nullable)

	s.Equal(vdbe.Null, cols[1].Datatype)
	s.True(*cols[1].Nullable)

	s.Equal(vdbe.Null, cols[2].Datatype)
	s.False(*cols[2].Nullable)
}

// S3: index coverage mirrors the covered columns' types.
func (s *CatalogTestSuite) TestIndexCoverage() {
	s.exec(`CREATE TABLE t(a INTEGER PRIMARY KEY, b_null TEXT NULL, b TEXT NOT NULL)`)
	s.exec(`CREATE UNIQUE INDEX i2 on t(a, b_null)`)

	cat, err := Load(context.Background(), s.db, nil)
	s.Require().NoError(err)

	key, ok := cat.LookupByName("i2")
	s.Require().True(ok)
	cols, ok := cat.RootBlockColumns(key.DBNum, key.RootPage)
	s.Require().True(ok)
	s.Require().Len(cols, 2)

	s.Equal(vdbe.Int64, cols[0].Datatype)
	s.Equal(vdbe.Text, cols[1].Datatype)
}

// S4: temp tables are discovered under db-number 1.
func (s *CatalogTestSuite) TestTempTableDiscovery() {
	s.exec(`CREATE TEMPORARY TABLE t3(a TEXT PRIMARY KEY, b REAL NOT NULL, b_null REAL NULL)`)

	cat, err := Load(context.Background(), s.db, nil)
	s.Require().NoError(err)

	key, ok := cat.LookupByName("t3")
	s.Require().True(ok)
	s.Equal(int64(1), key.DBNum)

	cols, ok := cat.RootBlockColumns(key.DBNum, key.RootPage)
	s.Require().True(ok)

	s.Equal(vdbe.Text, cols[0].Datatype)
	s.True(*cols[0].Nullable)
	s.Equal(vdbe.Float, cols[1].Datatype)
	s.False(*cols[1].Nullable)
	s.Equal(vdbe.Float, cols[2].Datatype)
	s.True(*cols[2].Nullable)
}

func (s *CatalogTestSuite) TestNamesWithPrefix() {
	s.exec(`CREATE TABLE todo_items(id INTEGER PRIMARY KEY)`)
	s.exec(`CREATE TABLE todo_lists(id INTEGER PRIMARY KEY)`)
	s.exec(`CREATE TABLE users(id INTEGER PRIMARY KEY)`)

	cat, err := Load(context.Background(), s.db, nil)
	s.Require().NoError(err)

	names := cat.NamesWithPrefix("todo_")
	s.Len(names, 2)
}
