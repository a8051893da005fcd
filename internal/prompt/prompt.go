// Package prompt renders the RevOps analysis instruction block sent to the
// answer service.
package prompt

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/filter"
	"github.com/sells-group/revops-assistant/internal/table"
)

// DefaultSystem is the system message sent alongside every rendered prompt.
const DefaultSystem = "You are a helpful CRM and RevOps assistant."

// NoOpportunity stands in for the opportunity name when nothing matched.
const NoOpportunity = "(no matching opportunity found)"

// Analysis is the instruction block for buying-group questions.
const Analysis = `
You are an AI assistant helping a RevOps team analyze CRM data.

The user is asking a question about the buying group for an opportunity.

The buying group typically includes the following roles:
- Decision Maker (e.g. CMO, VP of Marketing)
- Champion (someone who drives adoption internally)
- End User (daily users of the product)
- Finance (budget holder)
- Procurement (contract gatekeeper)

Your goals:
1. Identify which of those roles are represented in the buying group and which are missing.
2. Review the sales activity history to identify:
   - The most engaged contact (based on activity frequency and recency)
   - The least engaged contact
   - Any contacts who haven't been touched recently
   - Summaries of the last few activities if available
3. Analyze the buyer's journey by:
   - Creating a chronological timeline of all marketing and sales touchpoints
   - Identifying key moments in the buyer's journey
   - Highlighting any gaps in engagement
   - Suggesting next steps based on the journey analysis

Here is the buying group for the opportunity '{{.Opportunity}}' (if found):
{{.Group}}

Here are the sales activities involving those contacts:
{{.Activities}}

Here are the marketing touchpoints for those contacts:
{{.Marketing}}

Now, based on the question below and the data above, provide an analysis or answer:

{{.Question}}
`

// Bindings are the values substituted into a template. Record sections are
// pre-serialized text.
type Bindings struct {
	Opportunity string
	Group       string
	Activities  string
	Marketing   string
	Question    string
}

// NewBindings serializes a filtered context for rendering. An empty
// opportunity binds NoOpportunity.
func NewBindings(opportunity string, ctx filter.Context, question string) (Bindings, error) {
	if opportunity == "" {
		opportunity = NoOpportunity
	}
	group, err := FormatRecords(ctx.Group)
	if err != nil {
		return Bindings{}, eris.Wrap(err, "prompt: buying group")
	}
	activities, err := FormatRecords(ctx.Activities)
	if err != nil {
		return Bindings{}, eris.Wrap(err, "prompt: sales activities")
	}
	marketing, err := FormatRecords(ctx.Marketing)
	if err != nil {
		return Bindings{}, eris.Wrap(err, "prompt: marketing touchpoints")
	}
	return Bindings{
		Opportunity: opportunity,
		Group:       group,
		Activities:  activities,
		Marketing:   marketing,
		Question:    question,
	}, nil
}

// Render substitutes bindings into tmpl. It has no side effects.
func Render(tmpl string, b Bindings) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", eris.Wrap(err, "prompt: parse template")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, b); err != nil {
		return "", eris.Wrap(err, "prompt: render template")
	}
	return buf.String(), nil
}

// FormatRecords writes records as a one-line JSON array with every field in
// column order. An empty list renders as [].
func FormatRecords(recs []table.Record) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range recs {
		if i > 0 {
			buf.WriteString(", ")
		}
		b, err := r.MarshalJSON()
		if err != nil {
			return "", err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// Pretty indents records for debug display.
func Pretty(recs []table.Record) (string, error) {
	if recs == nil {
		recs = []table.Record{}
	}
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "prompt: indent records")
	}
	return string(b), nil
}
