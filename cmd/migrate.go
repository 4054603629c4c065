package cmd

import (
	"context"
	"github.com/leighmacdonald/tindex/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd creates the schema of the configured store
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	Long:  `Create or update the store schema. Stores without a schema are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(s)
		m, ok := s.(store.Migrator)
		if !ok {
			log.Infof("The %s store does not require migrations", s.Name())
			return nil
		}
		if err := m.Migrate(context.Background()); err != nil {
			return err
		}
		log.Infof("Migrated %s store successfully", s.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
