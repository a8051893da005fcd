package loader

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/db"
	"github.com/sells-group/revops-assistant/internal/table"
)

// Postgres reads and writes raw tables in PostgreSQL, in the same layout as
// SQLite.
type Postgres struct {
	pool db.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Load reads all nine tables in row_num order.
func (p *Postgres) Load(ctx context.Context) (*table.Set, error) {
	tables := make([]*table.Table, 0, len(table.Sources))
	for _, src := range table.Sources {
		t, err := p.loadTable(ctx, src)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return table.NewSet(tables...)
}

func (p *Postgres) loadTable(ctx context.Context, src table.Source) (*table.Table, error) {
	rows, err := p.pool.Query(ctx, "SELECT * FROM "+quoteIdent(src.Stem)+" ORDER BY "+rowNumColumn)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", src.Stem)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var data [][]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", src.Stem)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate %s", src.Stem)
	}

	columns, data = stripRowNum(columns, data)
	return table.New(src.Name, columns, data), nil
}

// ReplaceTable recreates the named table and COPYs rows into it in one
// transaction.
func (p *Postgres) ReplaceTable(ctx context.Context, name string, columns []string, rows [][]string) (int64, error) {
	if err := checkColumns(name, columns); err != nil {
		return 0, err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ident := quoteIdent(name)
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return 0, eris.Wrapf(err, "postgres: drop %s", name)
	}
	if _, err := tx.Exec(ctx, createTableSQL(ident, columns, "INTEGER")); err != nil {
		return 0, eris.Wrapf(err, "postgres: create %s", name)
	}

	copyCols := append([]string{rowNumColumn}, columns...)
	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, 0, len(copyCols))
		r = append(r, int32(i+1))
		for j := range columns {
			var v string
			if j < len(row) {
				v = row[j]
			}
			r = append(r, v)
		}
		copyRows[i] = r
	}

	n, err := db.CopyFrom(ctx, tx, name, copyCols, copyRows)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit %s", name)
	}
	return n, nil
}
