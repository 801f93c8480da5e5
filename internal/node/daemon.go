package node

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/catapult-go/chainsync/internal/chain"
	"github.com/catapult-go/chainsync/libs/log"
	"github.com/catapult-go/chainsync/libs/service"
)

// PeerSource supplies the RemoteApi handles the daemon should synchronize
// against on each round. In the intended topology there is one
// ChainSynchronizer per peer, so a PeerSource implementation typically
// returns the set of currently-connected peers.
type PeerSource interface {
	Peers() []chain.RemoteApi
}

// SynchronizerFactory constructs a fresh ChainSynchronizer for one peer.
// Each peer gets its own instance - and so its own gate and
// UnprocessedElements - matching the one-synchronizer-per-peer topology;
// only the underlying local chain view, consumer pipeline, and
// configuration are shared across peers.
type SynchronizerFactory func() *chain.ChainSynchronizer

// SyncDaemon drives one ChainSynchronizer per peer reported by a
// PeerSource, sweeping all of them concurrently on a fixed interval for
// the life of the node.
type SyncDaemon struct {
	service.BaseService

	newSynchronizer SynchronizerFactory
	peers           PeerSource
	interval        time.Duration
	logger          log.Logger

	// synchronizers is indexed positionally against the PeerSource's
	// slice: index i always holds the synchronizer for peers()[i]. This
	// assumes a PeerSource reports peers in a stable order across calls,
	// true of StaticPeerSource; a churning PeerSource would need a real
	// peer identity key instead.
	synchronizers []*chain.ChainSynchronizer
	cancel        context.CancelFunc
}

// NewSyncDaemon constructs a SyncDaemon. interval is the period of the
// ticker that starts sweeps: the first sweep runs at start, and each later
// one starts on the next tick after the previous sweep finished, so a
// sweep longer than interval is followed by the next one without delay.
func NewSyncDaemon(logger log.Logger, newSynchronizer SynchronizerFactory, peers PeerSource, interval time.Duration) *SyncDaemon {
	d := &SyncDaemon{
		newSynchronizer: newSynchronizer,
		peers:           peers,
		interval:        interval,
		logger:          logger,
	}
	d.BaseService = *service.NewBaseService(logger, "SyncDaemon", d)
	return d
}

// OnStart implements service.Implementation.
func (d *SyncDaemon) OnStart(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go d.loop(runCtx)
	return nil
}

// OnStop implements service.Implementation.
func (d *SyncDaemon) OnStop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *SyncDaemon) loop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.sweep(ctx); err != nil {
			d.logger.Error("sweep failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweep runs one Synchronize round against every configured peer
// concurrently, each against its own per-peer ChainSynchronizer instance.
// Results are not individually surfaced here - each round's outcome is
// observed through the synchronizer's own metrics. Synchronize returns no
// error and every goroutine returns nil, so sweep always returns nil; it
// waits for all peers' rounds to finish before returning.
func (d *SyncDaemon) sweep(ctx context.Context) error {
	peers := d.peers.Peers()

	// Grow the synchronizer slice to match, creating one per newly seen
	// peer, on this goroutine - the concurrent phase below only ever
	// reads it.
	for len(d.synchronizers) < len(peers) {
		d.synchronizers = append(d.synchronizers, d.newSynchronizer())
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, peer := range peers {
		s, peer := d.synchronizers[i], peer
		g.Go(func() error {
			s.Synchronize(ctx, peer)
			return nil
		})
	}
	return g.Wait()
}
