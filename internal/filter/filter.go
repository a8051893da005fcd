// Package filter narrows the buying-group view and the touchpoint history
// down to the contacts of one opportunity.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/schema"
	"github.com/sells-group/revops-assistant/internal/table"
)

// Context is the record set handed to the prompt for one opportunity.
// All three sequences are empty, never nil, when nothing matched.
type Context struct {
	Group      []table.Record `json:"buying_group" yaml:"buying_group"`
	Activities []table.Record `json:"sales_activities" yaml:"sales_activities"`
	Marketing  []table.Record `json:"marketing_touchpoints" yaml:"marketing_touchpoints"`
}

// Contacts returns the distinct contact ids of the selected group, in first
// appearance order.
func (c Context) Contacts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.Group {
		id, _ := r.Get(schema.ContactID)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Empty returns a Context with three empty sequences.
func Empty() Context {
	return Context{Group: []table.Record{}, Activities: []table.Record{}, Marketing: []table.Record{}}
}

// Apply selects the buying-group rows whose opportunity_name equals
// opportunity (case-insensitive, exact), then the sales activities and
// marketing touchpoints of those contacts. Activities and touchpoints are
// sorted ascending by date with a stable sort. An empty opportunity means no
// match and yields Empty().
func Apply(group, activities, marketing *table.Table, opportunity string) (Context, error) {
	if opportunity == "" {
		return Empty(), nil
	}

	oppCol, err := group.MustIndex(schema.OpportunityName)
	if err != nil {
		return Context{}, eris.Wrap(err, "filter: buying group")
	}
	contactCol, err := group.MustIndex(schema.ContactID)
	if err != nil {
		return Context{}, eris.Wrap(err, "filter: buying group")
	}

	out := Empty()
	want := strings.ToLower(opportunity)
	contacts := make(map[string]bool)
	for i, row := range group.Rows {
		if strings.ToLower(row[oppCol]) != want {
			continue
		}
		out.Group = append(out.Group, group.Record(i))
		contacts[row[contactCol]] = true
	}

	out.Activities, err = selectByContact(activities, contacts, schema.ActivityDate)
	if err != nil {
		return Context{}, eris.Wrap(err, "filter: sales activities")
	}
	out.Marketing, err = selectByContact(marketing, contacts, schema.TouchpointDate)
	if err != nil {
		return Context{}, eris.Wrap(err, "filter: marketing touchpoints")
	}
	return out, nil
}

func selectByContact(t *table.Table, contacts map[string]bool, dateColumn string) ([]table.Record, error) {
	contactCol, err := t.MustIndex(schema.ContactID)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.MustIndex(dateColumn)
	if err != nil {
		return nil, err
	}

	var rows []int
	for i, row := range t.Rows {
		if contacts[row[contactCol]] {
			rows = append(rows, i)
		}
	}

	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = strings.TrimSpace(t.Rows[r][dateCol])
	}
	order := SortByDate(dates)

	out := make([]table.Record, len(order))
	for i, idx := range order {
		out[i] = t.Record(rows[idx])
	}
	return out, nil
}

// dateLayouts are tried in order when parsing touchpoint dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByDate returns the indexes of dates in ascending order. When every
// non-empty value parses as a date, values compare chronologically;
// otherwise they compare as strings. Empty values sort last. Equal values
// keep their input order.
func SortByDate(dates []string) []int {
	parsed := make([]time.Time, len(dates))
	chronological := true
	for i, d := range dates {
		if d == "" {
			continue
		}
		t, ok := parseDate(d)
		if !ok {
			chronological = false
			break
		}
		parsed[i] = t
	}

	order := make([]int, len(dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		da, db := dates[ia], dates[ib]
		switch {
		case da == "" || db == "":
			return da != "" && db == ""
		case chronological:
			return parsed[ia].Before(parsed[ib])
		default:
			return da < db
		}
	})
	return order
}
