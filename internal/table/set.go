package table

import "github.com/rotisserie/eris"

// Raw table names, in load order.
const (
	Contacts        = "contacts"
	Accounts        = "accounts"
	Deals           = "deals"
	SalesActivities = "sales_activities"
	Marketing       = "marketing"
	ContactFunnel   = "contact_funnel"
	DealFunnel      = "deal_funnel"
	Roles           = "roles"
	Definitions     = "definitions"
)

// Source ties a raw table name to the file stem it is exported under. The
// stem doubles as the sheet name in a workbook and the table name in SQL.
type Source struct {
	Name string
	Stem string
}

// Sources lists the nine raw tables of a CRM export.
var Sources = []Source{
	{Name: Contacts, Stem: "contacts"},
	{Name: Accounts, Stem: "accounts"},
	{Name: Deals, Stem: "deals"},
	{Name: SalesActivities, Stem: "sales_activities"},
	{Name: Marketing, Stem: "marketing_touchpoints"},
	{Name: ContactFunnel, Stem: "contact_funnel_history"},
	{Name: DealFunnel, Stem: "deal_funnel_history"},
	{Name: Roles, Stem: "contact_deal_roles"},
	{Name: Definitions, Stem: "buying_group_definitions"},
}

// Set is one complete load of the raw tables. A Set is never mutated after
// it is built; reloads produce a new Set.
type Set struct {
	tables map[string]*Table
}

// NewSet builds a Set and fails if any of the nine tables is missing.
func NewSet(tables ...*Table) (*Set, error) {
	s := &Set{tables: make(map[string]*Table, len(Sources))}
	for _, t := range tables {
		if t == nil {
			continue
		}
		s.tables[t.Name] = t
	}
	for _, src := range Sources {
		if _, ok := s.tables[src.Name]; !ok {
			return nil, eris.Errorf("table: set is missing %s", src.Name)
		}
	}
	return s, nil
}

// Get returns the named table, or nil.
func (s *Set) Get(name string) *Table {
	return s.tables[name]
}

// Counts returns the row count of every table, keyed by name.
func (s *Set) Counts() map[string]int {
	out := make(map[string]int, len(s.tables))
	for name, t := range s.tables {
		out[name] = t.Len()
	}
	return out
}
