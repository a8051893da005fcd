// Package loader reads the nine raw CRM tables from a directory of CSV
// files, an XLSX workbook, a SQL database, or Salesforce, and writes them
// back into a SQL database for later loads.
package loader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/table"
)

// Sink receives whole raw tables. ReplaceTable drops any existing table of
// the same name and stores rows in order.
type Sink interface {
	ReplaceTable(ctx context.Context, name string, columns []string, rows [][]string) (int64, error)
}

// Import copies every table of set into dst under its export stem and
// returns the number of rows written per stem.
func Import(ctx context.Context, set *table.Set, dst Sink) (map[string]int64, error) {
	out := make(map[string]int64, len(table.Sources))
	for _, src := range table.Sources {
		t := set.Get(src.Name)
		n, err := dst.ReplaceTable(ctx, src.Stem, t.Columns, t.Rows)
		if err != nil {
			return out, eris.Wrapf(err, "loader: import %s", src.Stem)
		}
		out[src.Stem] = n
		zap.L().Info("loader: imported table",
			zap.String("table", src.Stem),
			zap.Int64("rows", n),
		)
	}
	return out, nil
}

// rowNumColumn orders imported rows; it is stripped again on load.
const rowNumColumn = "row_num"

// ErrReservedColumn is returned when a source header collides with the
// column ReplaceTable adds to keep row order.
var ErrReservedColumn = eris.New("loader: reserved column name")

// checkColumns rejects a header that would collide with rowNumColumn. SQL
// identifiers are matched without regard to case or surrounding spaces.
func checkColumns(name string, columns []string) error {
	for _, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), rowNumColumn) {
			return eris.Wrapf(ErrReservedColumn, "loader: table %s has column %q", name, c)
		}
	}
	return nil
}

// stripRowNum removes the row_num column from a loaded header and its rows.
func stripRowNum(columns []string, rows [][]string) ([]string, [][]string) {
	idx := -1
	for i, c := range columns {
		if c == rowNumColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return columns, rows
	}
	cols := append(append([]string(nil), columns[:idx]...), columns[idx+1:]...)
	for i, r := range rows {
		rows[i] = append(append([]string(nil), r[:idx]...), r[idx+1:]...)
	}
	return cols, rows
}

// cellString renders a database value the way it would appear in a CSV
// export. NULL becomes the empty string.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
