// Package match maps a free-text question to the single opportunity it is
// most plausibly about, using account names first and opportunity names
// second.
package match

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/schema"
	"github.com/sells-group/revops-assistant/internal/table"
)

// NormalizeText lowercases s and drops every rune that is not an ASCII
// letter or digit. Spaces and punctuation do not survive.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Pass identifies which heuristic produced a match.
type Pass int

const (
	// PassNone means nothing matched.
	PassNone Pass = iota
	// PassAccount matched an account name and took its first deal.
	PassAccount
	// PassOpportunity matched an opportunity name directly.
	PassOpportunity
)

func (p Pass) String() string {
	switch p {
	case PassAccount:
		return "account"
	case PassOpportunity:
		return "opportunity"
	default:
		return "none"
	}
}

// Result is the outcome of matching one question.
type Result struct {
	// Opportunity is the stored opportunity name, in its stored case.
	Opportunity string
	// AccountID is set when the account pass matched.
	AccountID string
	Pass      Pass
}

// Matched reports whether an opportunity was found.
func (r Result) Matched() bool {
	return r.Pass != PassNone
}

type account struct {
	id   string
	norm string
}

type deal struct {
	name string
	norm string
}

// Matcher holds the accounts and deals of one table load, pre-normalized.
// It is immutable and safe for concurrent use.
type Matcher struct {
	accounts []account
	deals    []deal
	// firstDeal maps an account id to the name of its first deal in table order.
	firstDeal map[string]string
}

// New builds a Matcher from normalized accounts and deals tables.
func New(accounts, deals *table.Table) (*Matcher, error) {
	aID, err := accounts.MustIndex(schema.AccountID)
	if err != nil {
		return nil, eris.Wrap(err, "match: accounts")
	}
	aName, err := accounts.MustIndex(schema.AccountName)
	if err != nil {
		return nil, eris.Wrap(err, "match: accounts")
	}
	dName, err := deals.MustIndex(schema.OpportunityName)
	if err != nil {
		return nil, eris.Wrap(err, "match: deals")
	}
	dAccount, err := deals.MustIndex(schema.AccountID)
	if err != nil {
		return nil, eris.Wrap(err, "match: deals")
	}

	m := &Matcher{
		accounts:  make([]account, 0, accounts.Len()),
		deals:     make([]deal, 0, deals.Len()),
		firstDeal: make(map[string]string),
	}
	for _, row := range accounts.Rows {
		m.accounts = append(m.accounts, account{id: row[aID], norm: NormalizeText(row[aName])})
	}
	for _, row := range deals.Rows {
		m.deals = append(m.deals, deal{name: row[dName], norm: NormalizeText(row[dName])})
		if row[dAccount] == "" {
			continue
		}
		if _, seen := m.firstDeal[row[dAccount]]; !seen {
			m.firstDeal[row[dAccount]] = row[dName]
		}
	}
	return m, nil
}

// Match finds the opportunity a question refers to. The first account, in
// table order, whose normalized name occurs anywhere in the normalized
// question and that owns at least one deal wins; its first deal is
// returned. Failing that, the first deal whose normalized name occurs in the
// question wins. Names that normalize to nothing never match.
func (m *Matcher) Match(question string) Result {
	q := NormalizeText(question)
	if q == "" {
		return Result{}
	}

	for _, a := range m.accounts {
		if a.norm == "" || !strings.Contains(q, a.norm) {
			continue
		}
		if name, ok := m.firstDeal[a.id]; ok {
			return Result{Opportunity: name, AccountID: a.id, Pass: PassAccount}
		}
	}

	for _, d := range m.deals {
		if d.norm != "" && strings.Contains(q, d.norm) {
			return Result{Opportunity: d.name, Pass: PassOpportunity}
		}
	}

	return Result{}
}

// Opportunities lists every deal name in table order.
func (m *Matcher) Opportunities() []string {
	out := make([]string, len(m.deals))
	for i, d := range m.deals {
		out[i] = d.name
	}
	return out
}
