package buyinggroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-assistant/internal/table"
)

func fixtures() (roles, contacts, deals *table.Table) {
	roles = table.New(table.Roles,
		[]string{"contact_id", "opportunity_id", "role", "is_primary"},
		[][]string{
			{"C2", "O1", "Champion", "False"},
			{"C1", "O1", "Decision Maker", "True"},
			{"C9", "O1", "End User", "False"}, // no such contact
			{"C1", "O9", "Finance", "False"},  // no such deal
			{"C1", "O2", "Finance", "False"},
		})
	contacts = table.New(table.Contacts,
		[]string{"contact_id", "full_name", "account_id"},
		[][]string{
			{"C1", "Ada Lovelace", "A1"},
			{"C2", "Grace Hopper", "A1"},
		})
	deals = table.New(table.Deals,
		[]string{"opportunity_id", "opportunity_name", "account_id"},
		[][]string{
			{"O1", "A1-Renewal-2024", "A1"},
			{"O2", "A1-Expansion-2025", "A1"},
		})
	return roles, contacts, deals
}

func TestCompose_InnerJoinDropsOrphans(t *testing.T) {
	roles, contacts, deals := fixtures()

	view, err := Compose(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, Name, view.Name)
	require.Equal(t, 3, view.Len())

	pairs := make([][2]string, view.Len())
	for i := range view.Rows {
		rec := view.Record(i)
		c, _ := rec.Get("contact_id")
		o, _ := rec.Get("opportunity_id")
		pairs[i] = [2]string{c, o}
	}
	// Role order is preserved; C9 and O9 rows vanish.
	assert.Equal(t, [][2]string{{"C2", "O1"}, {"C1", "O1"}, {"C1", "O2"}}, pairs)
}

func TestCompose_SuffixesSharedColumns(t *testing.T) {
	roles, contacts, deals := fixtures()

	view, err := Compose(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"contact_id", "opportunity_id", "role", "is_primary",
		"full_name", "account_id_x",
		"opportunity_name", "account_id_y",
	}, view.Columns)
}

func TestCompose_IsDeterministic(t *testing.T) {
	roles, contacts, deals := fixtures()

	a, err := Compose(roles, contacts, deals)
	require.NoError(t, err)
	b, err := Compose(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
}

func TestInnerJoin_ManyToMany(t *testing.T) {
	left := table.New("l", []string{"k", "v"}, [][]string{{"1", "a"}, {"2", "b"}, {"1", "c"}})
	right := table.New("r", []string{"w", "k"}, [][]string{{"x", "1"}, {"y", "1"}, {"z", ""}})

	got, err := InnerJoin(left, right, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v", "w"}, got.Columns)
	assert.Equal(t, [][]string{
		{"1", "a", "x"},
		{"1", "a", "y"},
		{"1", "c", "x"},
		{"1", "c", "y"},
	}, got.Rows)
}

func TestInnerJoin_EmptyKeysNeverMatch(t *testing.T) {
	left := table.New("l", []string{"k"}, [][]string{{""}})
	right := table.New("r", []string{"k", "v"}, [][]string{{"", "orphan"}})

	got, err := InnerJoin(left, right, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestInnerJoin_MissingKeyColumn(t *testing.T) {
	left := table.New("l", []string{"k"}, nil)
	right := table.New("r", []string{"other"}, nil)

	_, err := InnerJoin(left, right, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r has no column")
}

func TestOrphans(t *testing.T) {
	roles, contacts, deals := fixtures()
	n, err := Orphans(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOrphans_DuplicateKeys(t *testing.T) {
	roles, contacts, deals := fixtures()
	contacts.Rows = append(contacts.Rows, []string{"C1", "Ada Lovelace", "A1"})
	deals.Rows = append(deals.Rows, []string{"O1", "A1-Renewal-2024", "A1"})

	view, err := Compose(roles, contacts, deals)
	require.NoError(t, err)
	assert.Greater(t, view.Len(), roles.Len()-2)

	n, err := Orphans(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOrphans_EmptyKeyIsOrphan(t *testing.T) {
	roles, contacts, deals := fixtures()
	contacts.Rows = append(contacts.Rows, []string{"", "Nobody", "A1"})
	roles.Rows = append(roles.Rows, []string{"", "O1", "Champion", "False"})

	n, err := Orphans(roles, contacts, deals)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOrphans_MissingKeyColumn(t *testing.T) {
	roles, _, deals := fixtures()
	contacts := table.New(table.Contacts, []string{"full_name"}, nil)
	_, err := Orphans(roles, contacts, deals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buyinggroup: contact keys")
}
