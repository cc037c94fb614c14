package sink

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aouyang1/go-panelfill/panel"
	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable is the table the panel is written to.
const DefaultTable = "panel"

// SQLite writes a panel into a table keyed by entity and year. The table is recreated on
// every write so that rerunning a reconstruction replaces the previous panel.
type SQLite struct {
	db    *sql.DB
	table string
	opt   *Options
	owned bool
}

func NewSQLite(db *sql.DB, table string, opt *Options) *SQLite {
	if table == "" {
		table = DefaultTable
	}
	return &SQLite{db: db, table: table, opt: opt.validate()}
}

// OpenSQLite opens the database file at path and returns a sink that closes it.
func OpenSQLite(path, table string, opt *Options) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create directory for %s", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}
	s := NewSQLite(db, table, opt)
	s.owned = true
	return s, nil
}

// Close closes the database if it was opened by OpenSQLite.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (s *SQLite) createTable(p *panel.Panel) string {
	schema := p.Schema()
	defs := []string{
		quote(s.opt.EntityColumn) + " TEXT NOT NULL",
		quote(s.opt.YearColumn) + " INTEGER NOT NULL",
	}
	for _, name := range schema.Identity {
		defs = append(defs, quote(name)+" TEXT")
	}
	for _, name := range schema.Indicators {
		defs = append(defs, quote(name)+" REAL")
	}
	if s.opt.IncludeFills {
		for _, name := range schema.Indicators {
			defs = append(defs, quote(name+fillSuffix)+" TEXT NOT NULL")
		}
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s, %s)", quote(s.opt.EntityColumn), quote(s.opt.YearColumn)))
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quote(s.table), strings.Join(defs, ",\n\t"))
}

func (s *SQLite) insert(p *panel.Panel) string {
	header := s.opt.header(p)
	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, c := range header {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(s.table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (s *SQLite) Write(ctx context.Context, p *panel.Panel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(s.table)); err != nil {
		return errors.Wrapf(err, "failed to drop table %s", s.table)
	}
	if _, err := tx.ExecContext(ctx, s.createTable(p)); err != nil {
		return errors.Wrapf(err, "failed to create table %s", s.table)
	}

	stmt, err := tx.PrepareContext(ctx, s.insert(p))
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	args := make([]any, 0, len(s.opt.header(p)))
	for _, r := range p.Rows() {
		args = append(args[:0], r.EntityID, r.Year)
		for _, v := range r.Identity {
			args = append(args, v)
		}
		for _, v := range r.Indicators {
			if math.IsNaN(v) {
				args = append(args, nil)
				continue
			}
			args = append(args, v)
		}
		if s.opt.IncludeFills {
			for _, f := range r.Fills {
				args = append(args, f.String())
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "failed to insert row %s/%d", r.EntityID, r.Year)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit panel")
	}
	return nil
}
