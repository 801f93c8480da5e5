package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/catapult-go/chainsync/config"
	"github.com/catapult-go/chainsync/internal/chain"
	"github.com/catapult-go/chainsync/internal/node"
	"github.com/catapult-go/chainsync/internal/store"
	"github.com/catapult-go/chainsync/libs/log"
)

// StartCmd boots a logger, local chain store, metrics server, and
// ChainSynchronizer, then runs a SyncDaemon until an interrupt is received.
//
// No peer transport is implemented here: the configured block_range_consumer
// and peer set are the boundary the node's networking/disruptor layers would
// fill in. This command wires the core with a no-op consumer so the daemon
// is runnable end to end for smoke-testing the synchronizer's gating and
// metrics.
func StartCmd(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the chain synchronizer until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
			if err != nil {
				return err
			}
			logger = logger.With("moniker", conf.Moniker)

			db := dbm.NewMemDB()
			localChain, err := store.NewChainStore(db)
			if err != nil {
				return err
			}

			metrics := chain.NopMetrics()
			if conf.Instrumentation.Prometheus {
				metrics = chain.PrometheusMetrics(conf.Instrumentation.Namespace)
				metricsServer := node.NewMetricsServer(logger, conf.Instrumentation.PrometheusListenAddr)
				metricsServer.Start()
				defer metricsServer.Stop()
			}

			blockRangeConsumer := func(range_ chain.BlockRange, callback chain.CompletionCallback) chain.ElementID {
				id := uuid.New()
				logger.Info("accepted block range for processing",
					"from_height", range_.First().Height, "to_height", range_.Last().Height)
				go callback(chain.ElementID(id), chain.StatusNormal)
				return chain.ElementID(id)
			}
			txRangeConsumer := func(txs chain.TransactionRange) {
				logger.Info("accepted unconfirmed transactions", "count", txs.Len())
			}
			shortHashesSupplier := func() []chain.ShortHash { return nil }

			newSynchronizer := func() *chain.ChainSynchronizer {
				return chain.NewChainSynchronizer(
					localChain,
					conf.ChainSync.ToChainSynchronizerConfiguration(),
					shortHashesSupplier,
					blockRangeConsumer,
					txRangeConsumer,
					logger,
					metrics,
				)
			}

			peers := node.NewStaticPeerSource() // no peers configured; see StaticPeerSource
			daemon := node.NewSyncDaemon(logger, newSynchronizer, peers, 10*time.Second)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := daemon.Start(ctx); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			logger.Info("shutting down")
			return daemon.Stop()
		},
	}
}
