package cmd

import (
	"context"
	"github.com/leighmacdonald/tindex/model"
	"github.com/leighmacdonald/tindex/store/memory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// infoHashArgs validates and normalises info hash arguments in place
func infoHashArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return errors.New("requires at least 1 info_hash")
	}
	for i, arg := range args {
		ih, err := model.NormalizeInfoHash(arg)
		if err != nil {
			return errors.Wrapf(err, "invalid info_hash: %s", arg)
		}
		args[i] = ih
	}
	return nil
}

// whiteListCmd represents the whitelist admin commands
var whiteListCmd = &cobra.Command{
	Use:     "whitelist",
	Aliases: []string{"wl"},
	Short:   "Tracker whitelist commands",
	Long:    `Tracker whitelist commands`,
}

var whiteListAddCmd = &cobra.Command{
	Use:   "add <info_hash>...",
	Short: "Add torrents to the tracker whitelist",
	Long:  `Add torrents to the tracker whitelist`,
	Args:  infoHashArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Whitelisting never touches the key cache
		svc, err := newTrackerService(memory.NewDriver())
		if err != nil {
			return err
		}
		for _, ih := range args {
			if err := svc.WhitelistInfoHash(context.Background(), ih); err != nil {
				return errors.Wrapf(err, "Failed to whitelist %s", ih)
			}
			log.Infof("Whitelisted %s", ih)
		}
		return nil
	},
}

var whiteListRemoveCmd = &cobra.Command{
	Use:     "remove <info_hash>...",
	Aliases: []string{"rm", "del"},
	Short:   "Remove torrents from the tracker whitelist",
	Long:    `Remove torrents from the tracker whitelist`,
	Args:    infoHashArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newTrackerService(memory.NewDriver())
		if err != nil {
			return err
		}
		for _, ih := range args {
			if err := svc.RemoveInfoHashFromWhitelist(context.Background(), ih); err != nil {
				return errors.Wrapf(err, "Failed to remove %s from whitelist", ih)
			}
			log.Infof("Removed %s from whitelist", ih)
		}
		return nil
	},
}

func init() {
	whiteListCmd.AddCommand(whiteListAddCmd)
	whiteListCmd.AddCommand(whiteListRemoveCmd)
	rootCmd.AddCommand(whiteListCmd)
}
