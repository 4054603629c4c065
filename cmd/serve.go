package cmd

import (
	"context"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/http"
	"github.com/leighmacdonald/tindex/metrics"
	"github.com/leighmacdonald/tindex/util"
	gometrics "github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"time"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the index API",
	Long: `Start the index API. When importer_interval is set the statistics importer runs
in the background on the same schedule as the importer command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := util.SignalContext(context.Background())
		defer cancel()
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		svc, err := newTrackerService(s)
		if err != nil {
			return err
		}
		registry := gometrics.NewRegistry()
		im, importerCfg, err := newImporter(s, registry)
		if err != nil {
			return err
		}
		opts := http.DefaultHTTPOpts()
		opts.ListenAddr = config.GetString(config.APIListen)
		opts.Handler = http.NewIndexHandler(svc, s, registry)
		srv := http.NewHTTPServer(opts)

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return http.Serve(gCtx, srv)
		})
		g.Go(func() error {
			metrics.LogEvery(gCtx, registry, time.Minute)
			return nil
		})
		if importerCfg.Interval > 0 {
			g.Go(func() error {
				im.RunEvery(gCtx, importerCfg.Interval)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		log.Infof("Shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
