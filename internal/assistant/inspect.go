package assistant

import (
	"context"

	"github.com/sells-group/revops-assistant/internal/buyinggroup"
	"github.com/sells-group/revops-assistant/internal/schema"
)

// Opportunity is one deal with the name of the account that owns it.
type Opportunity struct {
	Name    string `json:"opportunity_name" yaml:"opportunity_name"`
	Account string `json:"account_name" yaml:"account_name"`
}

// Opportunities lists every deal in table order. Account is empty when the
// deal's account is unknown.
func (a *Assistant) Opportunities(ctx context.Context) ([]Opportunity, error) {
	v, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	accounts := v.tables.Accounts
	aID, _ := accounts.MustIndex(schema.AccountID)
	aName, _ := accounts.MustIndex(schema.AccountName)
	names := make(map[string]string, accounts.Len())
	for _, row := range accounts.Rows {
		if _, seen := names[row[aID]]; !seen {
			names[row[aID]] = row[aName]
		}
	}

	deals := v.tables.Deals
	dName, _ := deals.MustIndex(schema.OpportunityName)
	dAccount, _ := deals.MustIndex(schema.AccountID)
	out := make([]Opportunity, 0, deals.Len())
	for _, row := range deals.Rows {
		out = append(out, Opportunity{Name: row[dName], Account: names[row[dAccount]]})
	}
	return out, nil
}

// Report summarizes one table load.
type Report struct {
	// Tables counts rows per raw table.
	Tables map[string]int `json:"tables" yaml:"tables"`
	// BuyingGroup counts rows of the composed view.
	BuyingGroup int `json:"buying_group" yaml:"buying_group"`
	// OrphanedRoles counts role rows with no matching contact or deal.
	OrphanedRoles int `json:"orphaned_roles" yaml:"orphaned_roles"`
}

// Check loads, normalizes and composes the tables without calling the
// answer service. A malformed table surfaces as a *schema.ConfigurationError.
func (a *Assistant) Check(ctx context.Context) (*Report, error) {
	v, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	orphans, err := buyinggroup.Orphans(v.tables.Roles, v.tables.Contacts, v.tables.Deals)
	if err != nil {
		return nil, err
	}
	return &Report{
		Tables:        v.raw.Counts(),
		BuyingGroup:   v.group.Len(),
		OrphanedRoles: orphans,
	}, nil
}
