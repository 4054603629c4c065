package cmd

import (
	"context"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/importer"
	"github.com/leighmacdonald/tindex/metrics"
	"github.com/leighmacdonald/tindex/store"
	"github.com/leighmacdonald/tindex/util"
	gometrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func renderSummary(s importer.Summary) {
	t := defaultTable("Statistics import")
	t.AppendHeader(table.Row{"attempted", "updated", "skipped", "failed"})
	t.AppendRow(table.Row{s.Attempted, s.Updated, s.Skipped, s.Failed})
	t.Render()
}

// newImporter builds an importer from the current configuration
func newImporter(s store.Store, registry gometrics.Registry) (*importer.Importer, config.ImporterConfig, error) {
	cfg := config.GetImporterConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, cfg, err
	}
	svc, err := newTrackerService(s)
	if err != nil {
		return nil, cfg, err
	}
	im, err := importer.New(svc, s, importer.Opts{
		Concurrency: cfg.Concurrency,
		PageSize:    cfg.PageSize,
		RateLimit:   cfg.RateLimit,
		Registry:    registry,
	})
	return im, cfg, err
}

// importerCmd runs the statistics importer
var importerCmd = &cobra.Command{
	Use:   "importer",
	Short: "Import torrent statistics from the tracker",
	Long: `Import seeder, leecher and completed counts for every torrent in the index.

By default a single pass is run and the exit code is non zero only when the pass was
aborted. With --interval passes are repeated until the process is signalled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := util.SignalContext(context.Background())
		defer cancel()
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		registry := gometrics.NewRegistry()
		im, cfg, err := newImporter(s, registry)
		if err != nil {
			return err
		}
		if cfg.Interval > 0 {
			log.Infof("Running statistics import every %s", cfg.Interval)
			im.RunEvery(ctx, cfg.Interval)
			log.Infof("Final stats: %s", metrics.Get(registry))
			return nil
		}
		summary, err := im.Run(ctx)
		renderSummary(summary)
		return err
	},
}

func init() {
	importerCmd.Flags().Duration("interval", 0, "Repeat the import with this delay between passes")
	importerCmd.Flags().Int("concurrency", 10, "Maximum number of tracker lookups in flight")
	if err := viper.BindPFlag(string(config.ImporterInterval), importerCmd.Flags().Lookup("interval")); err != nil {
		log.Fatalf("Failed to bind flag: %v", err)
	}
	if err := viper.BindPFlag(string(config.ImporterConcurrency), importerCmd.Flags().Lookup("concurrency")); err != nil {
		log.Fatalf("Failed to bind flag: %v", err)
	}
	rootCmd.AddCommand(importerCmd)
}
