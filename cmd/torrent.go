package cmd

import (
	"context"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store/memory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"time"
)

func strOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func intOr(i *int64) interface{} {
	if i == nil {
		return "-"
	}
	return *i
}

func renderTorrentInfo(info model.TorrentInfo) {
	t := defaultTable(info.InfoHash)
	t.AppendHeader(table.Row{"seeders", "leechers", "completed", "peers"})
	t.AppendRow(table.Row{info.Seeders, info.Leechers, info.Completed, len(info.Peers)})
	t.Render()
	if len(info.Peers) == 0 {
		return
	}
	p := defaultTable("Peers")
	p.AppendHeader(table.Row{"addr", "client", "event", "uploaded", "downloaded", "left", "updated"})
	for _, peer := range info.Peers {
		clientName := "-"
		if peer.PeerID != nil {
			clientName = strOr(peer.PeerID.Client, strOr(peer.PeerID.ID, "-"))
		}
		updated := "-"
		if peer.Updated != nil {
			updated = time.Unix(0, *peer.Updated*int64(time.Millisecond)).Format(time.RFC3339)
		}
		p.AppendRow(table.Row{
			strOr(peer.Addr, "-"), clientName, strOr(peer.Event, "-"),
			intOr(peer.Uploaded), intOr(peer.Downloaded), intOr(peer.Left), updated,
		})
	}
	p.Render()
}

func renderTorrentStats(infoHash string, stats model.TorrentStats) {
	t := defaultTable("Stored statistics")
	t.AppendHeader(table.Row{"info_hash", "seeders", "leechers", "completed"})
	t.AppendRow(table.Row{infoHash, stats.Seeders, stats.Leechers, stats.Completed})
	t.Render()
}

// torrentCmd represents torrent commands
var torrentCmd = &cobra.Command{
	Use:     "torrent",
	Short:   "torrent commands",
	Long:    `torrent commands`,
	Aliases: []string{"t"},
}

var torrentInfoCmd = &cobra.Command{
	Use:   "info <info_hash>",
	Short: "Show the live swarm state of a torrent as seen by the tracker",
	Long:  `Show the live swarm state of a torrent as seen by the tracker`,
	Args:  infoHashArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newTrackerService(memory.NewDriver())
		if err != nil {
			return err
		}
		for _, ih := range args {
			info, err := svc.TorrentInfo(context.Background(), ih)
			if err != nil {
				return errors.Wrapf(err, "Failed to fetch %s", ih)
			}
			renderTorrentInfo(info)
		}
		return nil
	},
}

var torrentStatsCmd = &cobra.Command{
	Use:   "stats <info_hash>",
	Short: "Show the statistics stored for a torrent",
	Long:  `Show the statistics stored for a torrent by the last import`,
	Args:  infoHashArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		for _, ih := range args {
			stats, err := s.TorrentStats(context.Background(), ih)
			if err != nil {
				return errors.Wrapf(err, "Failed to read %s", ih)
			}
			renderTorrentStats(ih, stats)
		}
		return nil
	},
}

var torrentAddCmd = &cobra.Command{
	Use:   "add <info_hash>...",
	Short: "Add torrents to the index catalog",
	Long:  `Add torrents to the index catalog so the importer tracks their statistics`,
	Args:  infoHashArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		for _, ih := range args {
			if err := s.TorrentAdd(context.Background(), ih); err != nil {
				return errors.Wrapf(err, "Failed to add %s", ih)
			}
			log.Infof("Added %s", ih)
		}
		return nil
	},
}

func init() {
	torrentCmd.AddCommand(torrentInfoCmd)
	torrentCmd.AddCommand(torrentStatsCmd)
	torrentCmd.AddCommand(torrentAddCmd)
	rootCmd.AddCommand(torrentCmd)
}
