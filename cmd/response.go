package main

import (
	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/filter"
)

// askResponse is the machine-readable form of one answer, shared by
// `ask --output json|yaml` and POST /ask.
type askResponse struct {
	RequestID   string     `json:"request_id" yaml:"request_id"`
	Question    string     `json:"question" yaml:"question"`
	Opportunity string     `json:"opportunity" yaml:"opportunity"`
	MatchPass   string     `json:"match_pass" yaml:"match_pass"`
	Answer      string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	Debug       *debugInfo `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// debugInfo carries what the model saw.
type debugInfo struct {
	Prompt         string `json:"prompt" yaml:"prompt"`
	filter.Context `yaml:",inline"`
	Opportunities  []string `json:"opportunities" yaml:"opportunities"`
}

func newAskResponse(res *assistant.Result, debug bool) askResponse {
	out := askResponse{
		RequestID:   res.RequestID,
		Question:    res.Question,
		Opportunity: res.Opportunity,
		MatchPass:   res.MatchPass,
		Answer:      res.Answer,
		Error:       res.Error,
	}
	if debug {
		out.Debug = &debugInfo{
			Prompt:        res.Prompt,
			Context:       res.Context,
			Opportunities: res.Opportunities,
		}
	}
	return out
}
