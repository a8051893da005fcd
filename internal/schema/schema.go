// Package schema renames the columns of raw CRM export tables to the
// canonical field names used by the rest of the assistant.
package schema

import (
	"fmt"
	"strings"

	"github.com/sells-group/revops-assistant/internal/table"
)

// Rename maps one source column to its canonical field name.
type Rename struct {
	From string
	To   string
}

// Mapping is the ordered rename set for one raw table. Every From column is
// required to be present.
type Mapping []Rename

// Canonical field names referenced by the composer, matcher and filter.
const (
	ContactID       = "contact_id"
	AccountID       = "account_id"
	AccountName     = "account_name"
	OpportunityID   = "opportunity_id"
	OpportunityName = "opportunity_name"
	ActivityDate    = "activity_date"
	TouchpointDate  = "touchpoint_date"
)

var (
	ContactsMapping = Mapping{
		{"Contact ID", ContactID},
		{"Full Name", "full_name"},
		{"Email", "email"},
		{"Title", "title"},
		{"Phone", "phone"},
		{"Location", "location"},
		{"Last Engagement Date", "last_engagement_date"},
		{"Engagement Score", "engagement_score"},
		{"Account ID", AccountID},
	}

	AccountsMapping = Mapping{
		{"Account ID", AccountID},
		{"Company Name", AccountName},
		{"Industry", "industry"},
		{"NAICS Code", "sic_naics"},
		{"Region", "region"},
		{"Domain", "domain"},
		{"Employee Count", "employee_count"},
		{"Annual Revenue", "annual_revenue"},
		{"Industry Name", "industry_name"},
	}

	DealsMapping = Mapping{
		{"Opportunity ID", OpportunityID},
		{"Opportunity Name", OpportunityName},
		{"Stage", "stage"},
		{"Type", "type"},
		{"Amount", "amount"},
		{"Created Date", "created_date"},
		{"Expected Close Date", "expected_close_date"},
		{"Account ID", AccountID},
		{"Primary Contact ID", "primary_contact_id"},
		{"Primary Contact Name", "primary_contact_name"},
		{"Primary Contact Title", "primary_contact_title"},
	}

	SalesActivitiesMapping = Mapping{
		{"Contact ID", ContactID},
		{"Activity Type", "activity_type"},
		{"Date", ActivityDate},
		{"Summary", "summary"},
	}

	RolesMapping = Mapping{
		{"Contact ID", ContactID},
		{"Opportunity ID", OpportunityID},
		{"Role", "role"},
		{"Is Primary", "is_primary"},
	}

	MarketingMapping = Mapping{
		{"Contact ID", ContactID},
		{"Touchpoint Type", "touchpoint_type"},
		{"Date", TouchpointDate},
		{"Channel", "channel"},
		{"Content", "content"},
		{"Response", "response"},
	}
)

// Mappings lists the raw tables that are normalized, keyed by table name.
// contact_funnel, deal_funnel and definitions are loaded but never renamed.
var Mappings = map[string]Mapping{
	table.Contacts:        ContactsMapping,
	table.Accounts:        AccountsMapping,
	table.Deals:           DealsMapping,
	table.SalesActivities: SalesActivitiesMapping,
	table.Roles:           RolesMapping,
	table.Marketing:       MarketingMapping,
}

// ConfigurationError reports a raw table that lacks expected source columns.
// It is structural: the export does not match the schema and no request can
// be answered from it.
type ConfigurationError struct {
	Table   string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return fmt.Sprintf("schema: table %s is missing column(s) %s", e.Table, strings.Join(quoted, ", "))
}

// Normalize returns a copy of t whose mapped columns carry their canonical
// names. Unmapped columns keep their names and positions; rows are shared
// with t, which must not be mutated afterwards.
func Normalize(t *table.Table, m Mapping) (*table.Table, error) {
	rename := make(map[string]string, len(m))
	var missing []string
	for _, r := range m {
		if !t.Has(r.From) {
			missing = append(missing, r.From)
			continue
		}
		rename[r.From] = r.To
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Table: t.Name, Missing: missing}
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if to, ok := rename[c]; ok {
			cols[i] = to
		} else {
			cols[i] = c
		}
	}
	return &table.Table{Name: t.Name, Columns: cols, Rows: t.Rows}, nil
}

// Tables is the normalized view of the six tables the assistant reads.
type Tables struct {
	Contacts        *table.Table
	Accounts        *table.Table
	Deals           *table.Table
	SalesActivities *table.Table
	Roles           *table.Table
	Marketing       *table.Table
}

// NormalizeSet normalizes every mapped table of a raw set. The first
// missing column aborts with a *ConfigurationError.
func NormalizeSet(s *table.Set) (*Tables, error) {
	out := &Tables{}
	targets := []struct {
		name string
		dst  **table.Table
	}{
		{table.Contacts, &out.Contacts},
		{table.Accounts, &out.Accounts},
		{table.Deals, &out.Deals},
		{table.SalesActivities, &out.SalesActivities},
		{table.Roles, &out.Roles},
		{table.Marketing, &out.Marketing},
	}
	for _, tg := range targets {
		raw := s.Get(tg.name)
		if raw == nil {
			return nil, &ConfigurationError{Table: tg.name, Missing: []string{"(table)"}}
		}
		n, err := Normalize(raw, Mappings[tg.name])
		if err != nil {
			return nil, err
		}
		*tg.dst = n
	}
	return out, nil
}
