package cmd

import (
	"context"
	"fmt"
	"github.com/leighmacdonald/tindex/consts"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"strconv"
)

// announceCmd prints the personal announce url of a user
var announceCmd = &cobra.Command{
	Use:   "announce <user_id>",
	Short: "Print the personal announce url of a user",
	Long:  `Print the personal announce url of a user, issuing a new tracker key when required`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			return errors.Wrapf(consts.ErrInvalidUserID, "%s", args[0])
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		svc, err := newTrackerService(s)
		if err != nil {
			return err
		}
		u, err := svc.PersonalAnnounceURL(context.Background(), userID)
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(announceCmd)
}
