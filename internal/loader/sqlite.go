package loader

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/revops-assistant/internal/table"
)

// SQLite reads and writes raw tables in a SQLite database. Each table is
// stored under its export stem with a row_num column and one TEXT column per
// header.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at the given path and configures WAL mode.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// quoteIdent double-quotes an identifier for SQL.
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Load reads all nine tables in row_num order.
func (s *SQLite) Load(ctx context.Context) (*table.Set, error) {
	tables := make([]*table.Table, 0, len(table.Sources))
	for _, src := range table.Sources {
		t, err := s.loadTable(ctx, src)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return table.NewSet(tables...)
}

func (s *SQLite) loadTable(ctx context.Context, src table.Source) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(src.Stem)+" ORDER BY "+rowNumColumn)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", src.Stem)
	}
	defer rows.Close() //nolint:errcheck

	columns, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: columns %s", src.Stem)
	}

	var data [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", src.Stem)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			row[i] = v.String
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate %s", src.Stem)
	}

	columns, data = stripRowNum(columns, data)
	return table.New(src.Name, columns, data), nil
}

// ReplaceTable recreates the named table and inserts rows in one transaction.
func (s *SQLite) ReplaceTable(ctx context.Context, name string, columns []string, rows [][]string) (int64, error) {
	if err := checkColumns(name, columns); err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	ident := quoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return 0, eris.Wrapf(err, "sqlite: drop %s", name)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(ident, columns, "INTEGER")); err != nil {
		return 0, eris.Wrapf(err, "sqlite: create %s", name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+ident+" VALUES ("+placeholders+")")
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", name)
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		args := make([]any, 0, len(columns)+1)
		args = append(args, i+1)
		for j := range columns {
			var v string
			if j < len(row) {
				v = row[j]
			}
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s row %d", name, i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit %s", name)
	}
	return int64(len(rows)), nil
}

// createTableSQL builds the DDL for an imported raw table.
func createTableSQL(ident string, columns []string, rowNumType string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(ident)
	b.WriteString(" (")
	b.WriteString(rowNumColumn)
	b.WriteString(" ")
	b.WriteString(rowNumType)
	b.WriteString(" NOT NULL")
	for _, c := range columns {
		b.WriteString(", ")
		b.WriteString(quoteIdent(c))
		b.WriteString(" TEXT")
	}
	b.WriteString(")")
	return b.String()
}
