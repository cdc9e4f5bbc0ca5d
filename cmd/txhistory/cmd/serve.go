package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/onflow/txhistory/engine/access/jsonrpc"
	"github.com/onflow/txhistory/engine/access/rpc/backend"
	"github.com/onflow/txhistory/module/irrecoverable"
	"github.com/onflow/txhistory/module/metrics"
)

var flagSimulateInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transaction history over JSON-RPC",
	Long: `Serve the certified transaction history over JSON-RPC, and metrics for
prometheus. With a simulation interval the server also commits and certifies
blocks of random transactions, as simulate does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		signalerCtx, errs := irrecoverable.WithSignaler(ctx)

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		all, err := initStorage(db, metrics.NewCacheCollector(registry), false)
		if err != nil {
			return err
		}
		// restoring the committer checks the stored history against the
		// latest ledger info before anything is served
		committer, err := newCommitter(all, metrics.NewLedgerCollector(registry))
		if err != nil {
			return err
		}

		api, err := backend.New(backend.Params{
			Log:              log,
			Hasher:           cfg.NewHasher(),
			ChainID:          cfg.ChainID,
			MaxLimit:         cfg.MaxLimit,
			Transactions:     all.Transactions,
			AccumulatorNodes: all.AccumulatorNodes,
			LedgerInfos:      all.LedgerInfos,
			AccessMetrics:    metrics.NewAccessCollector(registry),
		})
		if err != nil {
			return fmt.Errorf("could not create backend: %w", err)
		}

		server := jsonrpc.NewServer(api, jsonrpc.Config{
			ListenAddress: cfg.ListenAddress,
			MaxBatchSize:  cfg.MaxBatchSize,
			RateLimit:     cfg.RateLimit,
			RateBurst:     cfg.RateBurst,
		}, log, metrics.NewJSONRPCCollector(registry))
		go func() {
			log.Info().Str("address", cfg.ListenAddress).Msg("json-rpc server started")
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				signalerCtx.Throw(fmt.Errorf("json-rpc server failed: %w", err))
			}
		}()

		var metricsDone <-chan struct{}
		if cfg.MetricsAddress != "" {
			metricsDone = metrics.NewServer(log, cfg.MetricsAddress, registry).Start(signalerCtx)
		}

		if flagSimulateInterval > 0 {
			sim, err := newSimulator(committer, flagKeys, flagBlockSize, flagEpochLength)
			if err != nil {
				return err
			}
			defer sim.stop()
			go sim.run(signalerCtx, flagSimulateInterval)
		}

		var exitErr error
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
		case err := <-errs:
			log.Error().Err(err).Msg("irrecoverable error, shutting down")
			exitErr = err
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		err = server.Shutdown(shutdownCtx)
		if err != nil {
			exitErr = multierr.Append(exitErr, fmt.Errorf("could not shut down json-rpc server gracefully: %w", err))
		}
		if metricsDone != nil {
			<-metricsDone
		}
		return exitErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().DurationVar(&flagSimulateInterval, "simulate-interval", 0, "commit a simulated block at this interval, 0 disables simulation")
	addSimulationFlags(serveCmd)
	addKeysFlag(serveCmd)
}
