package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account represents a Salesforce Account record.
type Account struct {
	ID                string  `json:"Id" salesforce:"Id"`
	Name              string  `json:"Name" salesforce:"Name"`
	Website           string  `json:"Website" salesforce:"Website"`
	Industry          string  `json:"Industry" salesforce:"Industry"`
	Sic               string  `json:"Sic" salesforce:"Sic"`
	SicDesc           string  `json:"SicDesc" salesforce:"SicDesc"`
	BillingState      string  `json:"BillingState" salesforce:"BillingState"`
	NumberOfEmployees int     `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	AnnualRevenue     float64 `json:"AnnualRevenue" salesforce:"AnnualRevenue"`
}

// Contact represents a Salesforce Contact record.
type Contact struct {
	ID               string `json:"Id" salesforce:"Id"`
	Name             string `json:"Name" salesforce:"Name"`
	Email            string `json:"Email" salesforce:"Email"`
	Title            string `json:"Title" salesforce:"Title"`
	Phone            string `json:"Phone" salesforce:"Phone"`
	MailingCity      string `json:"MailingCity" salesforce:"MailingCity"`
	LastActivityDate string `json:"LastActivityDate" salesforce:"LastActivityDate"`
	AccountID        string `json:"AccountId" salesforce:"AccountId"`
}

// Opportunity represents a Salesforce Opportunity record.
type Opportunity struct {
	ID          string  `json:"Id" salesforce:"Id"`
	Name        string  `json:"Name" salesforce:"Name"`
	StageName   string  `json:"StageName" salesforce:"StageName"`
	Type        string  `json:"Type" salesforce:"Type"`
	Amount      float64 `json:"Amount" salesforce:"Amount"`
	CreatedDate string  `json:"CreatedDate" salesforce:"CreatedDate"`
	CloseDate   string  `json:"CloseDate" salesforce:"CloseDate"`
	AccountID   string  `json:"AccountId" salesforce:"AccountId"`
}

// ContactRole represents an OpportunityContactRole record.
type ContactRole struct {
	ContactID     string `json:"ContactId" salesforce:"ContactId"`
	OpportunityID string `json:"OpportunityId" salesforce:"OpportunityId"`
	Role          string `json:"Role" salesforce:"Role"`
	IsPrimary     bool   `json:"IsPrimary" salesforce:"IsPrimary"`
}

// Task represents a Salesforce Task logged against a contact.
type Task struct {
	WhoID        string `json:"WhoId" salesforce:"WhoId"`
	TaskSubtype  string `json:"TaskSubtype" salesforce:"TaskSubtype"`
	ActivityDate string `json:"ActivityDate" salesforce:"ActivityDate"`
	Subject      string `json:"Subject" salesforce:"Subject"`
}

// Campaign is the parent campaign of a CampaignMember.
type Campaign struct {
	Name string `json:"Name" salesforce:"Name"`
	Type string `json:"Type" salesforce:"Type"`
}

// CampaignMember represents a contact's membership in a marketing campaign.
type CampaignMember struct {
	ContactID   string   `json:"ContactId" salesforce:"ContactId"`
	Status      string   `json:"Status" salesforce:"Status"`
	CreatedDate string   `json:"CreatedDate" salesforce:"CreatedDate"`
	Campaign    Campaign `json:"Campaign" salesforce:"Campaign"`
}

var (
	accountFields     = []string{"Id", "Name", "Website", "Industry", "Sic", "SicDesc", "BillingState", "NumberOfEmployees", "AnnualRevenue"}
	contactFields     = []string{"Id", "Name", "Email", "Title", "Phone", "MailingCity", "LastActivityDate", "AccountId"}
	opportunityFields = []string{"Id", "Name", "StageName", "Type", "Amount", "CreatedDate", "CloseDate", "AccountId"}
	roleFields        = []string{"ContactId", "OpportunityId", "Role", "IsPrimary"}
	taskFields        = []string{"WhoId", "TaskSubtype", "ActivityDate", "Subject"}
	memberFields      = []string{"ContactId", "Status", "CreatedDate", "Campaign.Name", "Campaign.Type"}
)

func selectSOQL(object string, fields []string, where string) string {
	soql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ", "), object)
	if where != "" {
		soql += " WHERE " + where
	}
	// CreatedDate is on every queryable object and gives export order.
	return soql + " ORDER BY CreatedDate, Id"
}

// QueryAccounts returns every Account.
func QueryAccounts(ctx context.Context, c Client) ([]Account, error) {
	var out []Account
	if err := c.Query(ctx, selectSOQL("Account", accountFields, ""), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query accounts")
	}
	return out, nil
}

// QueryContacts returns every Contact.
func QueryContacts(ctx context.Context, c Client) ([]Contact, error) {
	var out []Contact
	if err := c.Query(ctx, selectSOQL("Contact", contactFields, ""), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query contacts")
	}
	return out, nil
}

// QueryOpportunities returns every Opportunity.
func QueryOpportunities(ctx context.Context, c Client) ([]Opportunity, error) {
	var out []Opportunity
	if err := c.Query(ctx, selectSOQL("Opportunity", opportunityFields, ""), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query opportunities")
	}
	return out, nil
}

// QueryContactRoles returns every OpportunityContactRole.
func QueryContactRoles(ctx context.Context, c Client) ([]ContactRole, error) {
	var out []ContactRole
	if err := c.Query(ctx, selectSOQL("OpportunityContactRole", roleFields, ""), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query contact roles")
	}
	return out, nil
}

// QueryContactTasks returns Tasks whose WhoId points at a Contact.
func QueryContactTasks(ctx context.Context, c Client) ([]Task, error) {
	var out []Task
	if err := c.Query(ctx, selectSOQL("Task", taskFields, "Who.Type = 'Contact'"), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query tasks")
	}
	return out, nil
}

// QueryCampaignMembers returns campaign memberships held by Contacts.
func QueryCampaignMembers(ctx context.Context, c Client) ([]CampaignMember, error) {
	var out []CampaignMember
	if err := c.Query(ctx, selectSOQL("CampaignMember", memberFields, "ContactId != null"), &out); err != nil {
		return nil, eris.Wrap(err, "sf: query campaign members")
	}
	return out, nil
}
