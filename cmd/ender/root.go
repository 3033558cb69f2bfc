package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ksred/klear-indexer/internal/config"
)

// NewRootCommand constructs the ender command tree. Flags and environment
// variables resolve into the same viper keys.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	conf := &config.Config{}

	cmd := &cobra.Command{
		Use:           "ender",
		Short:         "Applies on-chain order events to the indexer database and notifies subscribers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			*conf = *loaded
			configureLogging(conf)
			return nil
		},
	}

	cmd.PersistentFlags().String("database_driver", config.DriverSQLite, "database driver (sqlite or postgres)")
	cmd.PersistentFlags().String("database_dsn", "indexer.db", "database connection string")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("env_file", "", "optional dotenv file read before the environment")

	cmd.AddCommand(newServeCommand(conf), newMigrateCommand(conf))
	return cmd
}

// configureLogging enables pretty printing outside production
func configureLogging(conf *config.Config) {
	if !conf.IsProduction() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if conf.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
