package fetcher

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook is a parsed XLSX file.
type Workbook struct {
	file *xlsx.File
}

// ReadWorkbook parses an XLSX document from r.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: read")
	}
	f, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return &Workbook{file: f}, nil
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.file.Sheets))
	for i, s := range w.file.Sheets {
		out[i] = s.Name
	}
	return out
}

// Table returns the first row of the named sheet as the header and the
// remaining non-blank rows as data. Rows are padded to the header width.
func (w *Workbook) Table(sheet string) (header []string, rows [][]string, err error) {
	s, ok := w.file.Sheet[sheet]
	if !ok {
		return nil, nil, eris.Errorf("xlsx: sheet %q not found", sheet)
	}
	if len(s.Rows) == 0 {
		return nil, nil, eris.Errorf("xlsx: sheet %q is empty", sheet)
	}

	header = rowToStrings(s.Rows[0])
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	for _, row := range s.Rows[1:] {
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		out := make([]string, len(header))
		copy(out, cells)
		rows = append(rows, out)
	}
	return header, rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
