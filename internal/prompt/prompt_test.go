package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-assistant/internal/filter"
	"github.com/sells-group/revops-assistant/internal/table"
)

func TestFormatRecords(t *testing.T) {
	tbl := table.New("t", []string{"z", "a"}, [][]string{{"1", `say "hi"`}, {"2", ""}})

	got, err := FormatRecords(tbl.Records())
	require.NoError(t, err)
	assert.Equal(t, `[{"z": "1", "a": "say \"hi\""}, {"z": "2", "a": ""}]`, got)
}

func TestFormatRecords_Empty(t *testing.T) {
	got, err := FormatRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestNewBindings_NoMatchUsesPlaceholder(t *testing.T) {
	b, err := NewBindings("", filter.Empty(), "who is our biggest customer")
	require.NoError(t, err)
	assert.Equal(t, NoOpportunity, b.Opportunity)
	assert.Equal(t, "[]", b.Group)
	assert.Equal(t, "[]", b.Activities)
	assert.Equal(t, "[]", b.Marketing)

	out, err := Render(Analysis, b)
	require.NoError(t, err)
	assert.Contains(t, out, "for the opportunity '"+NoOpportunity+"' (if found):\n[]")
	assert.True(t, strings.HasSuffix(out, "who is our biggest customer\n"))
}

func TestRender_EmbedsEverySection(t *testing.T) {
	group := table.New("g", []string{"contact_id", "role"}, [][]string{{"C1", "Champion"}})
	acts := table.New("a", []string{"contact_id", "activity_date"}, [][]string{{"C1", "2024-01-01"}})
	ctx := filter.Context{Group: group.Records(), Activities: acts.Records(), Marketing: []table.Record{}}

	b, err := NewBindings("A1-Renewal-2024", ctx, "What's the status with acme corp")
	require.NoError(t, err)
	out, err := Render(Analysis, b)
	require.NoError(t, err)

	assert.Contains(t, out, "opportunity 'A1-Renewal-2024'")
	assert.Contains(t, out, `[{"contact_id": "C1", "role": "Champion"}]`)
	assert.Contains(t, out, `involving those contacts:`+"\n"+`[{"contact_id": "C1", "activity_date": "2024-01-01"}]`)
	assert.Contains(t, out, "for those contacts:\n[]")
	assert.Contains(t, out, "What's the status with acme corp")
}

func TestRender_QuestionIsVerbatim(t *testing.T) {
	// text/template does not escape, and the question is not parsed as a template.
	q := "{{.Opportunity}} <b>&</b>"
	out, err := Render("Q: {{.Question}}", Bindings{Question: q})
	require.NoError(t, err)
	assert.Equal(t, "Q: "+q, out)
}

func TestRender_BadTemplate(t *testing.T) {
	_, err := Render("{{.Nope", Bindings{})
	require.Error(t, err)

	_, err = Render("{{.Nope}}", Bindings{})
	require.Error(t, err)
}

func TestPretty(t *testing.T) {
	out, err := Pretty(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	tbl := table.New("t", []string{"b", "a"}, [][]string{{"2", "1"}})
	out, err = Pretty(tbl.Records())
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"b\": \"2\",\n    \"a\": \"1\"\n  }\n]", out)
}
