package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/revops-assistant/internal/assistant"
)

var (
	askDebug  bool
	askOutput string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about an opportunity's buying group",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ask"); err != nil {
			return err
		}
		env, err := initAssistant(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer env.Close()

		return runAsk(cmd.Context(), env.Assistant, cmd.OutOrStdout(), strings.Join(args, " "), askOutput, askDebug)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "show the prompt, filtered records and available opportunities")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(askCmd)
}

// runAsk answers question and renders the result to w. An answer-service
// failure is rendered, not returned.
func runAsk(ctx context.Context, a *assistant.Assistant, w io.Writer, question, output string, debug bool) error {
	switch output {
	case "text", "json", "yaml":
	default:
		return eris.Errorf("ask: unknown output format %q", output)
	}

	var stop func()
	if output == "text" {
		stop = startSpinner("Thinking...")
	}
	res, err := a.Ask(ctx, question)
	if stop != nil {
		stop()
	}
	if err != nil {
		return err
	}

	switch output {
	case "json":
		b, err := json.MarshalIndent(newAskResponse(res, debug), "", "  ")
		if err != nil {
			return eris.Wrap(err, "ask: encode json")
		}
		fmt.Fprintln(w, string(b))
		return nil
	case "yaml":
		b, err := yaml.Marshal(newAskResponse(res, debug))
		if err != nil {
			return eris.Wrap(err, "ask: encode yaml")
		}
		fmt.Fprint(w, string(b))
		return nil
	}
	return printAnswer(w, res, debug)
}

func printAnswer(w io.Writer, res *assistant.Result, debug bool) error {
	if debug {
		heading(w, "Match")
		keyValue(w, "Opportunity", orPlaceholder(res.Opportunity))
		keyValue(w, "Pass", res.MatchPass)
		if err := printContext(w, res.Context); err != nil {
			return err
		}
		heading(w, "Available opportunities")
		for _, name := range res.Opportunities {
			fmt.Fprintln(w, "  "+name)
		}
		heading(w, "Prompt")
		fmt.Fprintln(w, res.Prompt)
		heading(w, "Answer")
	}

	if res.Failed() {
		printError(w, res.Error)
		return nil
	}
	fmt.Fprintln(w, res.Answer)
	return nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
