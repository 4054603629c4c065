package cmd

import (
	"context"
	"github.com/leighmacdonald/tindex/examples/trackerapi"
	"github.com/leighmacdonald/tindex/http"
	"github.com/leighmacdonald/tindex/store"
	"github.com/leighmacdonald/tindex/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	demoListen   string
	demoTorrents int
)

// demoapiCmd represents the demoapi command
var demoapiCmd = &cobra.Command{
	Use:   "demoapi",
	Short: "Run an example tracker admin API for local development",
	Long: `Run an example tracker admin API for local development. The admin token is
the tracker_token config value, or a fixed test token when unset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := util.SignalContext(context.Background())
		defer cancel()
		token := trackerToken()
		api := trackerapi.New(token)
		for i := 0; i < demoTorrents; i++ {
			ih := store.GenerateTestInfoHash()
			api.AddRandomSwarm(ih, 10)
			log.Infof("Demo torrent: %s", ih)
		}
		return http.Serve(ctx, api.NewServer(demoListen))
	},
}

func init() {
	demoapiCmd.Flags().StringVarP(&demoListen, "listen", "l", "localhost:1212", "Address to listen on")
	demoapiCmd.Flags().IntVarP(&demoTorrents, "torrents", "n", 5, "Number of random torrents to serve")
	rootCmd.AddCommand(demoapiCmd)
}
