package fetcher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// workbookBytes builds an XLSX document in memory; sheets are added in the
// order given by names.
func workbookBytes(t *testing.T, names []string, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range names {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestWorkbook_Table(t *testing.T) {
	b := workbookBytes(t, []string{"accounts", "deals"}, map[string][][]string{
		"accounts": {
			{"Account ID", " Company Name ", ""},
			{"A1", "Acme Corp"},
			{"", ""},
			{"A2", "Globex", "extra"},
		},
		"deals": {{"Opportunity ID"}},
	})

	wb, err := ReadWorkbook(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "deals"}, wb.SheetNames())

	header, rows, err := wb.Table("accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"Account ID", "Company Name"}, header)
	assert.Equal(t, [][]string{{"A1", "Acme Corp"}, {"A2", "Globex"}}, rows)

	header, rows, err = wb.Table("deals")
	require.NoError(t, err)
	assert.Equal(t, []string{"Opportunity ID"}, header)
	assert.Empty(t, rows)
}

func TestWorkbook_MissingSheet(t *testing.T) {
	b := workbookBytes(t, []string{"accounts"}, map[string][][]string{"accounts": {{"x"}}})
	wb, err := ReadWorkbook(bytes.NewReader(b))
	require.NoError(t, err)

	_, _, err = wb.Table("contacts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "contacts" not found`)
}

func TestReadWorkbook_NotXLSX(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open workbook")
}
