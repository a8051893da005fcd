// Package buyinggroup joins contact roles, contacts and deals into the
// denormalized buying-group view: one row per (contact, opportunity) role.
package buyinggroup

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/schema"
	"github.com/sells-group/revops-assistant/internal/table"
)

// Name of the composed view.
const Name = "buying_group"

// Suffixes applied to non-key columns present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// Compose returns inner_join(inner_join(roles, contacts, contact_id), deals,
// opportunity_id). A role whose contact or opportunity does not exist is
// dropped without notice. Rows come out in role order, then in contact or
// deal order for repeated keys.
func Compose(roles, contacts, deals *table.Table) (*table.Table, error) {
	withContacts, err := InnerJoin(roles, contacts, schema.ContactID)
	if err != nil {
		return nil, eris.Wrap(err, "buyinggroup: join contacts")
	}
	view, err := InnerJoin(withContacts, deals, schema.OpportunityID)
	if err != nil {
		return nil, eris.Wrap(err, "buyinggroup: join deals")
	}
	view.Name = Name
	return view, nil
}

// InnerJoin joins left and right on an equal key column. The key appears
// once, at its left position; other shared columns are suffixed _x/_y.
// Empty keys never match.
func InnerJoin(left, right *table.Table, key string) (*table.Table, error) {
	lk, err := left.MustIndex(key)
	if err != nil {
		return nil, err
	}
	rk, err := right.MustIndex(key)
	if err != nil {
		return nil, err
	}

	shared := make(map[string]bool)
	for i, c := range right.Columns {
		if i != rk && left.Has(c) && c != key {
			shared[c] = true
		}
	}

	cols := make([]string, 0, len(left.Columns)+len(right.Columns)-1)
	for _, c := range left.Columns {
		if shared[c] {
			c += LeftSuffix
		}
		cols = append(cols, c)
	}
	for i, c := range right.Columns {
		if i == rk {
			continue
		}
		if shared[c] {
			c += RightSuffix
		}
		cols = append(cols, c)
	}

	byKey := make(map[string][]int, right.Len())
	for i, row := range right.Rows {
		if row[rk] == "" {
			continue
		}
		byKey[row[rk]] = append(byKey[row[rk]], i)
	}

	var rows [][]string
	for _, lrow := range left.Rows {
		for _, ri := range byKey[lrow[lk]] {
			rrow := right.Rows[ri]
			out := make([]string, 0, len(cols))
			out = append(out, lrow...)
			for i, v := range rrow {
				if i == rk {
					continue
				}
				out = append(out, v)
			}
			rows = append(rows, out)
		}
	}

	return &table.Table{Name: left.Name, Columns: cols, Rows: rows}, nil
}

// Orphans counts role rows that Compose drops: rows whose contact_id is not
// a contact or whose opportunity_id is not a deal. Duplicate contact or deal
// keys do not change the count.
func Orphans(roles, contacts, deals *table.Table) (int, error) {
	contactIDs, err := keySet(contacts, schema.ContactID)
	if err != nil {
		return 0, eris.Wrap(err, "buyinggroup: contact keys")
	}
	dealIDs, err := keySet(deals, schema.OpportunityID)
	if err != nil {
		return 0, eris.Wrap(err, "buyinggroup: deal keys")
	}
	rc, err := roles.MustIndex(schema.ContactID)
	if err != nil {
		return 0, eris.Wrap(err, "buyinggroup: role contact key")
	}
	ro, err := roles.MustIndex(schema.OpportunityID)
	if err != nil {
		return 0, eris.Wrap(err, "buyinggroup: role deal key")
	}

	n := 0
	for _, row := range roles.Rows {
		if !contactIDs[row[rc]] || !dealIDs[row[ro]] {
			n++
		}
	}
	return n, nil
}

func keySet(t *table.Table, key string) (map[string]bool, error) {
	k, err := t.MustIndex(key)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, t.Len())
	for _, row := range t.Rows {
		if row[k] != "" {
			set[row[k]] = true
		}
	}
	return set, nil
}
