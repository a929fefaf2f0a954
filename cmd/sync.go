package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/narrative"
	"github.com/sells-group/marathon-cli/internal/pipeline"
	"github.com/sells-group/marathon-cli/internal/publish"
	"github.com/sells-group/marathon-cli/internal/report"
	"github.com/sells-group/marathon-cli/internal/snapshot"
	"github.com/sells-group/marathon-cli/internal/source"
	"github.com/sells-group/marathon-cli/pkg/jina"
	"github.com/sells-group/marathon-cli/pkg/notion"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full scrape, reconcile, publish cycle once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(buildDeps(st), pipeline.Options{
			Threshold:   cfg.Sync.Threshold,
			FirstRunCap: cfg.Sync.FirstRunCap,
			DetailLimit: cfg.Sync.DetailLimit,
			OutputDir:   cfg.Sync.OutputDir,
			LogDir:      cfg.Sync.LogDir,
			MetricsPath: cfg.Sync.MetricsPath,
			DryRun:      syncDryRun,
		})

		result, err := p.Run(ctx)
		if result != nil {
			printSyncResult(cmd.OutOrStdout(), result)
		}
		return err
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "skip publishing to Notion")
	rootCmd.AddCommand(syncCmd)
}

// buildDeps wires the scrapers, narrative provider and Notion publisher
// from configuration.
func buildDeps(st *snapshot.Store) pipeline.Deps {
	hc := &http.Client{Timeout: cfg.Sources.Timeout()}
	opts := []source.Option{
		source.WithHTTPClient(hc),
		source.WithUserAgent(cfg.Sources.UserAgent),
		source.WithRetry(cfg.Sources.Retry),
	}
	if cfg.Sources.RespectRobots {
		ttl := time.Duration(cfg.Sources.RobotsTTLMins) * time.Minute
		opts = append(opts, source.WithRobots(source.NewRobotsChecker(cfg.Sources.UserAgent, ttl, hc)))
	}

	deps := pipeline.Deps{
		Store: st,
		Narrative: narrative.New(narrative.Config{
			Provider:      cfg.Narrative.Provider,
			Model:         cfg.Narrative.Model,
			MaxTokens:     cfg.Narrative.MaxTokens,
			AnthropicKey:  cfg.Anthropic.Key,
			OpenAIKey:     cfg.OpenAI.Key,
			OpenAIBaseURL: cfg.OpenAI.BaseURL,
		}),
	}

	if cfg.Sources.RoadrunURL != "" {
		roadrun := source.NewRoadrun(cfg.Sources.RoadrunURL, time.Duration(cfg.Sync.DetailDelayMs)*time.Millisecond, opts...)
		deps.Primary = roadrun
		deps.Details = roadrun
	}
	if cfg.Sources.RunningLifeURL != "" {
		var reader jina.Client
		if cfg.Sources.RenderViaJina {
			reader = jina.NewClient(cfg.Jina.Key,
				jina.WithBaseURL(cfg.Jina.BaseURL),
				jina.WithRetry(cfg.Sources.Retry),
			)
		}
		deps.Secondary = source.NewRunningLife(cfg.Sources.RunningLifeURL, reader, opts...)
	}

	if cfg.Notion.Configured() {
		client := notion.NewClient(cfg.Notion.Token)
		deps.Publisher = publish.NewPublisher(client, cfg.Notion.EventDB, time.Duration(cfg.Notion.DelayMs)*time.Millisecond)
	} else {
		zap.L().Info("notion credentials not configured, publishing disabled")
	}
	return deps
}

func printSyncResult(w io.Writer, r *pipeline.Result) {
	fmt.Fprintf(w, "Roadrun: %d events | RunningLife: %d events\n", r.PrimaryCount, r.SecondaryCount)
	if r.Summary.Total > 0 {
		fmt.Fprintf(w, "Cross-validated: %d/%d (%.1f%%), high confidence: %d\n",
			r.Summary.CrossValidated, r.Summary.Total, r.Summary.ValidationRate, r.Summary.HighConfidence)
	}
	if r.FirstRun {
		fmt.Fprintln(w, "First run: snapshot initialized")
	}
	fmt.Fprintf(w, "New: %d, Updated: %d, Processed: %d\n", len(r.New), len(r.Updated), len(r.Targets))
	if r.ScriptPath != "" {
		fmt.Fprintf(w, "Script: %s\n", r.ScriptPath)
	}
	if len(r.SyncResults) > 0 {
		fmt.Fprintf(w, "Sync Result: %s\n", report.Tally(r.SyncResults))
	}
	if r.ReportPath != "" {
		fmt.Fprintf(w, "Log: %s\n", r.ReportPath)
	}
}

