package loader

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revops-assistant/internal/fetcher"
	"github.com/sells-group/revops-assistant/internal/table"
)

// CSV loads one <stem>.csv file per raw table from a directory or URL.
type CSV struct {
	opener *fetcher.Opener
	// concurrency bounds parallel file reads.
	concurrency int
}

// NewCSV creates a CSV loader over opener.
func NewCSV(opener *fetcher.Opener) *CSV {
	c := &CSV{opener: opener, concurrency: 1}
	if opener.Remote() {
		c.concurrency = 3
	}
	return c
}

// Load reads all nine files. Any missing or unreadable file fails the load.
func (c *CSV) Load(ctx context.Context) (*table.Set, error) {
	var (
		mu     sync.Mutex
		tables = make([]*table.Table, 0, len(table.Sources))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, src := range table.Sources {
		g.Go(func() error {
			name := src.Stem + ".csv"
			rc, err := c.opener.Open(gctx, name)
			if err != nil {
				return eris.Wrapf(err, "loader: open %s", name)
			}
			defer rc.Close() //nolint:errcheck

			header, rows, err := fetcher.ReadCSV(gctx, rc)
			if err != nil {
				return eris.Wrapf(err, "loader: read %s", name)
			}

			mu.Lock()
			tables = append(tables, table.New(src.Name, header, rows))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table.NewSet(tables...)
}

// XLSX loads the raw tables from one workbook with a sheet per export stem.
type XLSX struct {
	opener   *fetcher.Opener
	workbook string
}

// NewXLSX creates a workbook loader; workbook is resolved against opener.
func NewXLSX(opener *fetcher.Opener, workbook string) *XLSX {
	return &XLSX{opener: opener, workbook: workbook}
}

// Load reads every sheet named after a raw table stem.
func (x *XLSX) Load(ctx context.Context) (*table.Set, error) {
	rc, err := x.opener.Open(ctx, x.workbook)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", x.workbook)
	}
	defer rc.Close() //nolint:errcheck

	wb, err := fetcher.ReadWorkbook(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", x.workbook)
	}

	tables := make([]*table.Table, 0, len(table.Sources))
	for _, src := range table.Sources {
		header, rows, err := wb.Table(src.Stem)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read %s", x.workbook)
		}
		tables = append(tables, table.New(src.Name, header, rows))
	}
	return table.NewSet(tables...)
}
