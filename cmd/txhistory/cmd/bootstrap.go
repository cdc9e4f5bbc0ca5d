package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/finalizer"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/module/signature"
)

var (
	flagKeys       string
	flagValidators int
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Initialize an empty history with a genesis transaction and validator set",
	Long: `Initialize an empty database. The genesis transaction becomes version 0 and the
genesis ledger info hands over to freshly generated validators, whose keys are
written to the key file. The printed waypoint is the trust root of clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagValidators <= 0 {
			return fmt.Errorf("at least one validator is required")
		}

		log.Info().Int("validators", flagValidators).Msg("generating validator keys")
		signers, err := generateSigners(flagValidators)
		if err != nil {
			return fmt.Errorf("could not generate validator keys: %w", err)
		}
		validators, err := validatorSet(signers)
		if err != nil {
			return fmt.Errorf("could not build validator set: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := initStorage(db, metrics.NewNoopCollector(), true)
		if err != nil {
			return err
		}
		verifier, err := signature.NewValidatorVerifier(cfg.QuorumThreshold())
		if err != nil {
			return err
		}

		genesis := ledger.Transaction{
			Payload:         []byte("genesis"),
			GasCurrencyCode: "XUS",
			ChainID:         cfg.ChainID,
		}
		_, waypoint, err := finalizer.Bootstrap(log, metrics.NewNoopCollector(), cfg.NewHasher(), verifier, all,
			genesis, validators, uint64(time.Now().UnixMicro()))
		if err != nil {
			return fmt.Errorf("could not bootstrap history: %w", err)
		}

		err = writeJSON(flagKeys, newKeyFile(waypoint, 1, signers))
		if err != nil {
			return err
		}

		log.Info().Str("waypoint", waypoint.String()).Msg("history bootstrapped")
		fmt.Println(waypoint)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)

	bootstrapCmd.Flags().IntVarP(&flagValidators, "validators", "n", 4, "number of genesis validators")
	addKeysFlag(bootstrapCmd)
}

func addKeysFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagKeys, "keys", "k", "validators.json", "path to the validator key file")
}
