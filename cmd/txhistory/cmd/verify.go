package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/onflow/txhistory/client"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/state/trust"
)

var (
	flagURL      string
	flagWaypoint string
	flagStart    uint64
	flagLimit    uint64
	flagPageSize uint64
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Download and verify the transaction history of a server",
	Long: `Download transactions from a server, verifying every page against the ledger
infos certified by the validators, starting from the trust of a waypoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		waypoint, err := ledger.ParseWaypoint(flagWaypoint)
		if err != nil {
			return err
		}
		if flagPageSize == 0 {
			return fmt.Errorf("page size must be positive")
		}

		hasher := cfg.NewHasher()
		verifier, err := signature.NewValidatorVerifier(cfg.QuorumThreshold())
		if err != nil {
			return err
		}
		c := client.New(flagURL,
			client.WithLogger(log),
			client.WithCircuitBreaker(5, 30*time.Second),
		)

		// the epoch change proof from version 0 starts with the ledger info
		// the waypoint pins
		proof, err := c.GetStateProof(ctx, 0)
		if err != nil {
			return fmt.Errorf("could not get state proof: %w", err)
		}
		if len(proof.EpochChangeProof.LedgerInfos) == 0 {
			return fmt.Errorf("server returned no epoch change proof")
		}
		state, err := trust.FromWaypoint(hasher, waypoint, proof.EpochChangeProof.LedgerInfos[0].LedgerInfo)
		if err != nil {
			return fmt.Errorf("could not trust genesis ledger info: %w", err)
		}

		vc := client.NewVerifyingClient(log, c, hasher, verifier, state, client.WithMaxLimit(cfg.MaxLimit))
		latest, err := vc.Sync(ctx)
		if err != nil {
			return err
		}
		end := latest.Version + 1
		if flagLimit > 0 && flagStart+flagLimit < end {
			end = flagStart + flagLimit
		}
		if flagStart > end {
			return fmt.Errorf("start version %d is beyond the latest version %d", flagStart, latest.Version)
		}

		bar := progressbar.Default(int64(end-flagStart), "verifying:")
		start := flagStart
		for start < end {
			size := flagPageSize
			if end-start < size {
				size = end - start
			}
			resp, err := vc.GetTransactionsWithProofs(ctx, start, size)
			if err != nil {
				return fmt.Errorf("could not verify transactions from version %d: %w", start, err)
			}
			n := uint64(resp.Len())
			if n == 0 {
				break
			}
			log.Debug().
				Uint64("first_version", start).
				Uint64("count", n).
				Uint64("ledger_info_version", resp.LedgerInfo.LedgerInfo.Version).
				Msg("page verified")
			start += n
			_ = bar.Add64(int64(n))
		}
		_ = bar.Finish()

		trusted := vc.TrustedState()
		log.Info().
			Uint64("from", flagStart).
			Uint64("verified", start-flagStart).
			Uint64("trusted_version", trusted.Version).
			Uint64("trusted_epoch", trusted.Epoch()).
			Msg("history verified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&flagURL, "url", "http://localhost:8080", "url of the JSON-RPC server")
	verifyCmd.Flags().StringVar(&flagWaypoint, "waypoint", "", "waypoint printed by bootstrap, as version:digest")
	_ = verifyCmd.MarkFlagRequired("waypoint")
	verifyCmd.Flags().Uint64Var(&flagStart, "start", 0, "first version to verify")
	verifyCmd.Flags().Uint64Var(&flagLimit, "limit", 0, "number of transactions to verify, 0 verifies up to the latest ledger info")
	verifyCmd.Flags().Uint64Var(&flagPageSize, "page-size", 100, "number of transactions requested per call")
}
