package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/config"
	"github.com/sells-group/revops-assistant/internal/db"
	"github.com/sells-group/revops-assistant/internal/fetcher"
	"github.com/sells-group/revops-assistant/internal/loader"
	"github.com/sells-group/revops-assistant/internal/table"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and import the CRM tables",
}

var tablesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and normalize every table without calling the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("tables"); err != nil {
			return err
		}
		env, err := initAssistant(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer env.Close()

		return runCheck(cmd.Context(), env.Assistant, cmd.OutOrStdout())
	},
}

var tablesOpportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List every opportunity with its account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("tables"); err != nil {
			return err
		}
		env, err := initAssistant(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer env.Close()

		return runOpportunities(cmd.Context(), env.Assistant, cmd.OutOrStdout())
	},
}

var importFrom string

var tablesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a directory of CRM CSV exports into the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("tables"); err != nil {
			return err
		}
		if importFrom == "" {
			return eris.New("import: --from is required")
		}
		sink, closeSink, err := openSink(cmd.Context(), cfg.Data)
		if err != nil {
			return err
		}
		defer closeSink()

		return runImport(cmd.Context(), importFrom, sink, cmd.OutOrStdout())
	},
}

func init() {
	tablesImportCmd.Flags().StringVar(&importFrom, "from", "", "directory or URL holding the CSV exports (required)")
	tablesCmd.AddCommand(tablesCheckCmd, tablesOpportunitiesCmd, tablesImportCmd)
	rootCmd.AddCommand(tablesCmd)
}

func runCheck(ctx context.Context, a *assistant.Assistant, w io.Writer) error {
	rep, err := a.Check(ctx)
	if err != nil {
		return err
	}
	heading(w, "Tables")
	for _, src := range table.Sources {
		keyValue(w, src.Stem, fmt.Sprintf("%d rows", rep.Tables[src.Name]))
	}
	heading(w, "Buying group")
	keyValue(w, "rows", fmt.Sprintf("%d", rep.BuyingGroup))
	keyValue(w, "orphaned roles", fmt.Sprintf("%d", rep.OrphanedRoles))
	return nil
}

func runOpportunities(ctx context.Context, a *assistant.Assistant, w io.Writer) error {
	opps, err := a.Opportunities(ctx)
	if err != nil {
		return err
	}
	heading(w, "Available opportunities")
	for _, o := range opps {
		if o.Account == "" {
			fmt.Fprintln(w, "  "+o.Name)
			continue
		}
		fmt.Fprintf(w, "  %s (%s)\n", o.Name, o.Account)
	}
	return nil
}

// openSink opens the configured SQL database as an import target.
func openSink(ctx context.Context, d config.DataConfig) (loader.Sink, func(), error) {
	switch d.Source {
	case config.SourceSQLite:
		s, err := loader.OpenSQLite(d.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.SourcePostgres:
		pool, err := db.Connect(ctx, d.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		p := loader.NewPostgres(pool)
		return p, func() { _ = p.Close() }, nil
	}
	return nil, nil, eris.Errorf("import: data.source must be sqlite or postgres, got %q", d.Source)
}

// runImport reads the CSV set under from and replaces every table in sink.
func runImport(ctx context.Context, from string, sink loader.Sink, w io.Writer) error {
	start := time.Now()
	opener, err := fetcher.NewOpener(from, fetcher.Options{
		Timeout:   time.Minute,
		UserAgent: userAgent,
	})
	if err != nil {
		return err
	}
	set, err := loader.NewCSV(opener).Load(ctx)
	if err != nil {
		return err
	}

	counts, err := loader.Import(ctx, set, sink)
	if err != nil {
		return err
	}

	stems := make([]string, 0, len(counts))
	for stem := range counts {
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	heading(w, "Imported")
	for _, stem := range stems {
		keyValue(w, stem, fmt.Sprintf("%d rows", counts[stem]))
	}

	zap.L().Info("import: complete",
		zap.Int("tables", len(counts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
