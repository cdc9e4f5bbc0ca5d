package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/onflow/txhistory/config"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "txhistory",
	Short:         "Serve and verify an authenticated transaction history",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		log = log.Level(cfg.Level())
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	config.InitializeFlags(rootCmd.PersistentFlags(), config.DefaultConfig())

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
}
