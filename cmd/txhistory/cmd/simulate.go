package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/module/finalizer"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/storage"
)

var (
	flagBlocks      int
	flagBlockSize   int
	flagEpochLength int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Commit and certify blocks of random transactions",
	Long: `Commit blocks of random transactions to a bootstrapped history, certifying each
block with a ledger info signed by the validators of the key file. Every
epoch-length blocks the validators are replaced and the key file rewritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := initStorage(db, metrics.NewNoopCollector(), false)
		if err != nil {
			return err
		}
		committer, err := newCommitter(all, metrics.NewNoopCollector())
		if err != nil {
			return err
		}

		sim, err := newSimulator(committer, flagKeys, flagBlockSize, flagEpochLength)
		if err != nil {
			return err
		}
		defer sim.stop()

		err = sim.runBlocks(ctx, flagBlocks)
		if err != nil {
			return fmt.Errorf("simulation stopped: %w", err)
		}
		log.Info().
			Int("blocks", flagBlocks).
			Uint64("num_leaves", committer.NumLeaves()).
			Uint64("epoch", committer.EpochState().Epoch).
			Msg("simulation complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&flagBlocks, "blocks", 10, "number of blocks to commit")
	addSimulationFlags(simulateCmd)
	addKeysFlag(simulateCmd)
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagBlockSize, "block-size", 20, "largest number of transactions per block")
	cmd.Flags().IntVar(&flagEpochLength, "epoch-length", 0, "number of blocks per epoch, 0 keeps the genesis validators")
}

func newCommitter(all *storage.All, collector module.LedgerMetrics) (*finalizer.Committer, error) {
	verifier, err := signature.NewValidatorVerifier(cfg.QuorumThreshold())
	if err != nil {
		return nil, err
	}
	committer, err := finalizer.NewCommitter(log, collector, cfg.NewHasher(), verifier, all)
	if err != nil {
		return nil, fmt.Errorf("could not restore committer: %w", err)
	}
	return committer, nil
}
