package chain

import (
	"context"

	"github.com/catapult-go/chainsync/libs/log"
)

// BlockPuller iteratively pulls blocks from a remote peer starting at a
// height, until either the peer stops sending or forkDepth blocks have been
// accumulated, then hands the merged range to UnprocessedElements.
type BlockPuller struct {
	remote      RemoteChainApi
	unprocessed *UnprocessedElements
	config      *ChainSyncConfig
	logger      log.Logger
	metrics     *Metrics
}

// ChainSyncConfig is the subset of configuration the puller needs per
// request; it mirrors config.ChainSyncConfig without importing the config
// package, keeping internal/chain free of the config layer's concerns.
type ChainSyncConfig struct {
	MaxRollbackBlocks           uint32
	MaxChainBytesPerSyncAttempt uint64
}

// NewBlockPuller constructs a BlockPuller against a single peer's chain API.
func NewBlockPuller(remote RemoteChainApi, unprocessed *UnprocessedElements, config *ChainSyncConfig, logger log.Logger, metrics *Metrics) *BlockPuller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &BlockPuller{
		remote:      remote,
		unprocessed: unprocessed,
		config:      config,
		logger:      logger,
		metrics:     metrics,
	}
}

// Pull runs the iterative pull loop starting at startHeight, stopping once
// forkDepth blocks have been aggregated or the peer returns an empty range,
// and admits the merged result to UnprocessedElements.
//
// forkDepth == 0 (the fast path synthesized when unprocessed elements are
// already in flight) means any non-empty reply is sufficient to complete
// after a single request.
func (p *BlockPuller) Pull(ctx context.Context, startHeight Height, forkDepth uint32) (NodeInteractionResult, error) {
	aggregator := NewRangeAggregator()
	nextHeight := startHeight

	options := BlocksFromOptions{
		NumBlocksLimit: p.config.MaxRollbackBlocks,
		NumBytesLimit:  p.config.MaxChainBytesPerSyncAttempt,
	}

	for {
		p.metrics.BlockPullRequests.Add(1)
		range_, err := p.remote.BlocksFrom(ctx, nextHeight, options)
		if err != nil {
			return Failure, err
		}

		if range_.Empty() {
			break
		}

		p.logger.Debug("pulled blocks",
			"count", range_.Size(), "from_height", range_.First().Height, "to_height", range_.Last().Height)
		aggregator.Add(range_)

		if uint32(aggregator.NumBlocks()) >= forkDepth {
			break
		}
		nextHeight = range_.Last().Height.Add(1)
	}

	if aggregator.Empty() {
		return Neutral, nil
	}

	merged, err := aggregator.Merge()
	if err != nil {
		return Failure, err
	}

	admitted, err := p.unprocessed.Add(merged)
	if err != nil {
		return Failure, err
	}
	if !admitted {
		return Neutral, nil
	}

	p.metrics.BlocksPulled.Add(float64(merged.Size()))
	return Success, nil
}
