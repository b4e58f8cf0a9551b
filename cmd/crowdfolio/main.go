// crowdfolio — popular investor crowd analysis for eToro.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crowdfolio/crowdfolio/api"
	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/config"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
	"github.com/crowdfolio/crowdfolio/internal/news"
	"github.com/crowdfolio/crowdfolio/internal/pipeline"
	"github.com/crowdfolio/crowdfolio/internal/report"
	"github.com/crowdfolio/crowdfolio/internal/snapshot"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crowdfolio",
	Short: "crowdfolio — popular investor crowd analysis for eToro",
	Long: `crowdfolio collects the portfolios of eToro's most-copied investors,
aggregates them into crowd positioning bands (top 100, 500, 1000, ...),
and renders HTML snapshot reports with cash levels, instrument
concentration, and a cash-based fear & greed index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crowdfolio %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Collect Command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a full collection: rankings, portfolios, analysis, report",
	Long: `Fetch the popular investor rankings, walk every investor's public
portfolio at a polite pace, aggregate crowd positioning per band, and
write a JSON snapshot plus an HTML report to the output directory.

A full run over 1000 investors takes on the order of 20-30 minutes;
the pacing is deliberate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		periodFlag, _ := cmd.Flags().GetString("period")
		maxFlag, _ := cmd.Flags().GetInt("max")

		period := etoro.Period(cfg.Analysis.Period)
		if periodFlag != "" {
			period = etoro.Period(periodFlag)
		}
		if !etoro.ValidPeriod(period) {
			return fmt.Errorf("invalid period %q (use CurrMonth, CurrQuarter, CurrYear, LastYear, LastTwoYears)", period)
		}

		maxInvestors := cfg.Analysis.MaxInvestors
		if maxFlag > 0 {
			maxInvestors = maxFlag
		}

		pipe, err := buildPipeline()
		if err != nil {
			return err
		}

		// Ctrl-C aborts the run but keeps already-collected data in memory
		// until the pipeline returns.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("📊 Collecting top %d popular investors (%s)\n", maxInvestors, period)

		result, err := pipe.Run(ctx, pipeline.Options{
			Period:       period,
			MaxInvestors: maxInvestors,
			BandSizes:    cfg.Analysis.BandSizes,
		}, func(percent float64, msg string) {
			fmt.Printf("  [%5.1f%%] %s\n", percent, msg)
		})
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("✅ Done in %s\n", result.Duration.Round(time.Second))
		fmt.Printf("   Snapshot: %s\n", result.SnapshotPath)
		if result.ReportPath != "" {
			fmt.Printf("   Report:   %s\n", result.ReportPath)
		}
		if result.Snapshot.ErrorCount > 0 {
			fmt.Printf("   ⚠️  %d of %d portfolios failed to fetch\n",
				result.Snapshot.ErrorCount, len(result.Snapshot.Investors))
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().String("period", "", "ranking period (CurrMonth, CurrQuarter, CurrYear, LastYear, LastTwoYears)")
	collectCmd.Flags().Int("max", 0, "maximum number of investors to collect")
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [snapshot]",
	Short: "Re-render a report from a stored snapshot",
	Long: `Render a report from an existing snapshot without re-collecting.
With no argument the latest snapshot is used. Use --text for a plain
text summary on stdout instead of writing an HTML file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asText, _ := cmd.Flags().GetBool("text")

		store, err := snapshot.NewStore(cfg.Report.OutputDir)
		if err != nil {
			return err
		}

		var snap *snapshot.Snapshot
		if len(args) == 1 {
			snap, err = store.Load(args[0])
		} else {
			snap, err = store.LoadLatest()
		}
		if err != nil {
			return err
		}

		reportCfg := buildReportConfig()

		if asText {
			text, err := report.GenerateText(snap, reportCfg)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		}

		var headlines []news.Article
		if cfg.News.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			headlines = buildNewsService().Headlines(ctx, cfg.News.Limit)
		}

		html, err := report.GenerateHTML(snap, headlines, reportCfg)
		if err != nil {
			return err
		}

		path, err := store.SaveReport(snap.CollectedAt, html)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Report written to %s\n", path)
		return nil
	},
}

func init() {
	reportCmd.Flags().Bool("text", false, "print a plain text summary instead of writing HTML")
}

// --- Snapshots Command ---

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.NewStore(cfg.Report.OutputDir)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots yet. Run `crowdfolio collect` first.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the REST API server. Collection runs are triggered via
POST /api/v1/collect and progress is streamed over /api/v1/ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting crowdfolio API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and stored snapshot summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  crowdfolio — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Upstream:      %s\n", cfg.Etoro.BaseURL)
		fmt.Printf("    Period:        %s\n", cfg.Analysis.Period)
		fmt.Printf("    Max investors: %d\n", cfg.Analysis.MaxInvestors)
		fmt.Printf("    Band sizes:    %v\n", cfg.Analysis.BandSizes)
		fmt.Printf("    Output dir:    %s\n", cfg.Report.OutputDir)
		fmt.Printf("    API server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		store, err := snapshot.NewStore(cfg.Report.OutputDir)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		fmt.Printf("  Snapshots:     %d stored\n", len(names))
		if len(names) > 0 {
			snap, err := store.LoadLatest()
			if err == nil {
				fmt.Printf("    Latest:      %s (%d investors, %d errors)\n",
					snap.CollectedAt.Format(time.RFC3339), len(snap.Investors), snap.ErrorCount)
			}
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Wiring helpers ---

func buildPipeline() (*pipeline.Pipeline, error) {
	store, err := snapshot.NewStore(cfg.Report.OutputDir)
	if err != nil {
		return nil, err
	}

	client := etoro.NewClient(etoro.Config{
		BaseURL:     cfg.Etoro.BaseURL,
		MinInterval: cfg.Etoro.MinInterval(),
		Timeout:     cfg.Etoro.Timeout(),
		BatchSize:   cfg.Etoro.BatchSize,
		BatchDelay:  cfg.Etoro.BatchDelay(),
	})

	collCfg := collector.DefaultConfig()
	collCfg.FetchTradeStats = cfg.Collector.FetchTradeStats
	if p := etoro.Period(cfg.Analysis.Period); etoro.ValidPeriod(p) {
		collCfg.Period = p
	}
	collCfg.ConsecutiveFailureLimit = cfg.Collector.FailureLimit
	collCfg.BreakerCooldown = time.Duration(cfg.Collector.BreakerCooldownSec) * time.Second
	collCfg.BrakeErrorRate = cfg.Collector.BrakeErrorRate
	collCfg.BrakePause = time.Duration(cfg.Collector.BrakePauseSec) * time.Second
	collCfg.CheckpointEvery = cfg.Collector.CheckpointEvery
	collCfg.CheckpointPause = time.Duration(cfg.Collector.CheckpointPauseSec) * time.Second
	coll := collector.New(client, collCfg)

	var newsSvc *news.Service
	if cfg.News.Enabled {
		newsSvc = buildNewsService()
	}

	return pipeline.New(client, coll, store, newsSvc, buildReportConfig()), nil
}

func buildNewsService() *news.Service {
	sources := news.DefaultSources
	if len(cfg.News.Feeds) > 0 {
		sources = nil
		for _, u := range cfg.News.Feeds {
			sources = append(sources, news.Source{Name: u, URL: u})
		}
	}
	return news.NewService(sources)
}

func buildReportConfig() report.Config {
	reportCfg := report.DefaultConfig()
	if cfg.Report.Title != "" {
		reportCfg.Title = cfg.Report.Title
	}
	if cfg.Report.Author != "" {
		reportCfg.Author = cfg.Report.Author
	}
	return reportCfg
}
