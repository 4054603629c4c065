// Package cmd implements the tindex command line interface
package cmd

import (
	"fmt"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leighmacdonald/tindex/client"
	"github.com/leighmacdonald/tindex/config"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/leighmacdonald/tindex/examples/trackerapi"
	"github.com/leighmacdonald/tindex/store"
	"github.com/leighmacdonald/tindex/tracker"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
)

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "tindex",
	Short:        "Torrent index tracker integration",
	Long:         `Keeps a torrent index in sync with its tracker: whitelisting, user keys and swarm statistics`,
	Version:      fmt.Sprintf("tindex (git:%s) (date:%s)", consts.BuildVersion, consts.BuildTime),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func defaultTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

// openStore opens the configured backing store
func openStore() (store.Store, error) {
	cfg := config.GetStoreConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	s, err := store.New(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to setup store: %s", cfg)
	}
	log.Debugf("Opened %s store", s.Name())
	return s, nil
}

// newTrackerService builds the tracker service from the current configuration
func newTrackerService(keys store.TrackerKeyStore) (*tracker.Service, error) {
	cfg := config.GetTrackerConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	log.Debugf("Tracker config: %s", cfg)
	c := client.New(cfg.APIURL, cfg.Token, cfg.RequestTimeout)
	return tracker.New(c, keys, tracker.Opts{
		TrackerURL:        cfg.URL,
		TokenValidSeconds: cfg.TokenValidSeconds,
		IssueTimeout:      2 * cfg.RequestTimeout,
	}), nil
}

func closeStore(s store.Store) {
	if err := s.Close(); err != nil {
		log.Errorf("Failed to close store cleanly: %v", err)
	}
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.Read(cfgFile); err != nil {
			log.Fatalf("Could not load config: %v", err)
		}
	})
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tindex.yaml)")
}

// trackerToken returns the configured admin token, falling back to the demo api token
func trackerToken() string {
	if t := config.GetTrackerConfig().Token; t != "" {
		return t
	}
	return trackerapi.DefaultToken
}
