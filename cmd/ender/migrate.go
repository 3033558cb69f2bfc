package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ksred/klear-indexer/internal/config"
	"github.com/ksred/klear-indexer/internal/database"
)

func newMigrateCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the indexer tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := database.NewDatabase(conf); err != nil {
				return err
			}
			log.Info().Str("driver", conf.DatabaseDriver).Msg("migrations applied")
			return nil
		},
	}
}
