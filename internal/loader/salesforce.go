package loader

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revops-assistant/internal/schema"
	"github.com/sells-group/revops-assistant/internal/table"
	"github.com/sells-group/revops-assistant/pkg/salesforce"
)

// Headers of the tables Salesforce has no standard object for. They are
// loaded empty so the set stays complete.
var (
	contactFunnelHeader = []string{"Contact ID", "Stage", "Date"}
	dealFunnelHeader    = []string{"Opportunity ID", "Stage", "Date"}
	definitionsHeader   = []string{"Role", "Description"}
)

// Salesforce builds the raw tables from live Salesforce objects, using the
// same column headers as a CSV export.
type Salesforce struct {
	client salesforce.Client
}

// NewSalesforce creates a loader over client.
func NewSalesforce(client salesforce.Client) *Salesforce {
	return &Salesforce{client: client}
}

type sfSnapshot struct {
	accounts []salesforce.Account
	contacts []salesforce.Contact
	opps     []salesforce.Opportunity
	roles    []salesforce.ContactRole
	tasks    []salesforce.Task
	members  []salesforce.CampaignMember
}

// Load queries the six CRM objects concurrently and maps them to tables.
func (s *Salesforce) Load(ctx context.Context) (*table.Set, error) {
	var snap sfSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.accounts, err = salesforce.QueryAccounts(gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		snap.contacts, err = salesforce.QueryContacts(gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		snap.opps, err = salesforce.QueryOpportunities(gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		snap.roles, err = salesforce.QueryContactRoles(gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		snap.tasks, err = salesforce.QueryContactTasks(gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		snap.members, err = salesforce.QueryCampaignMembers(gctx, s.client)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap.tables()
}

func (snap sfSnapshot) tables() (*table.Set, error) {
	contactsByID := make(map[string]salesforce.Contact, len(snap.contacts))
	contacts := make([][]string, 0, len(snap.contacts))
	for _, c := range snap.contacts {
		contactsByID[c.ID] = c
		contacts = append(contacts, []string{
			c.ID, c.Name, c.Email, c.Title, c.Phone, c.MailingCity, c.LastActivityDate, "", c.AccountID,
		})
	}

	accounts := make([][]string, 0, len(snap.accounts))
	for _, a := range snap.accounts {
		accounts = append(accounts, []string{
			a.ID, a.Name, a.Industry, a.Sic, a.BillingState, a.Website,
			formatInt(a.NumberOfEmployees), formatFloat(a.AnnualRevenue), a.SicDesc,
		})
	}

	primary := make(map[string]string)
	roles := make([][]string, 0, len(snap.roles))
	for _, r := range snap.roles {
		if r.IsPrimary {
			if _, ok := primary[r.OpportunityID]; !ok {
				primary[r.OpportunityID] = r.ContactID
			}
		}
		roles = append(roles, []string{r.ContactID, r.OpportunityID, r.Role, cellString(r.IsPrimary)})
	}

	deals := make([][]string, 0, len(snap.opps))
	for _, o := range snap.opps {
		var pc salesforce.Contact
		if id, ok := primary[o.ID]; ok {
			pc = contactsByID[id]
			pc.ID = id
		}
		deals = append(deals, []string{
			o.ID, o.Name, o.StageName, o.Type, formatFloat(o.Amount),
			datePart(o.CreatedDate), o.CloseDate, o.AccountID, pc.ID, pc.Name, pc.Title,
		})
	}

	activities := make([][]string, 0, len(snap.tasks))
	for _, t := range snap.tasks {
		activities = append(activities, []string{t.WhoID, t.TaskSubtype, t.ActivityDate, t.Subject})
	}

	marketing := make([][]string, 0, len(snap.members))
	for _, m := range snap.members {
		marketing = append(marketing, []string{
			m.ContactID, m.Campaign.Type, datePart(m.CreatedDate), "Campaign", m.Campaign.Name, m.Status,
		})
	}

	return table.NewSet(
		table.New(table.Contacts, sourceColumns(schema.ContactsMapping), contacts),
		table.New(table.Accounts, sourceColumns(schema.AccountsMapping), accounts),
		table.New(table.Deals, sourceColumns(schema.DealsMapping), deals),
		table.New(table.SalesActivities, sourceColumns(schema.SalesActivitiesMapping), activities),
		table.New(table.Marketing, sourceColumns(schema.MarketingMapping), marketing),
		table.New(table.Roles, sourceColumns(schema.RolesMapping), roles),
		table.New(table.ContactFunnel, contactFunnelHeader, nil),
		table.New(table.DealFunnel, dealFunnelHeader, nil),
		table.New(table.Definitions, definitionsHeader, nil),
	)
}

// sourceColumns lists the export header a mapping expects, in mapping order.
func sourceColumns(m schema.Mapping) []string {
	out := make([]string, len(m))
	for i, r := range m {
		out[i] = r.From
	}
	return out
}

// datePart trims a Salesforce datetime to its date.
func datePart(s string) string {
	if len(s) > 10 && s[10] == 'T' {
		return s[:10]
	}
	return s
}

// Salesforce decodes null numbers as zero; exports leave them blank.
func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
