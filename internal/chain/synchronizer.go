package chain

import (
	"context"

	"github.com/catapult-go/chainsync/libs/log"
)

// ChainSynchronizerConfiguration bounds a single sync round. It mirrors
// config.ChainSyncConfig; see that package for defaults and validation.
type ChainSynchronizerConfiguration struct {
	MaxBlocksPerSyncAttempt     uint32
	MaxRollbackBlocks           uint32
	MaxChainBytesPerSyncAttempt uint64
}

// MaxUnprocessedBytes is the admission threshold for UnprocessedElements,
// three times the per-request byte cap.
func (c ChainSynchronizerConfiguration) MaxUnprocessedBytes() uint64 {
	return 3 * c.MaxChainBytesPerSyncAttempt
}

// ChainSynchronizer orchestrates one sync round at a time against a single
// peer: gate, compare, dispatch on the verdict, release the gate. Callers
// needing to multiplex several peers construct one ChainSynchronizer per
// peer.
type ChainSynchronizer struct {
	local               LocalChainApi
	config              ChainSynchronizerConfiguration
	shortHashesSupplier ShortHashesSupplier
	blockRangeConsumer  CompletionAwareBlockRangeConsumer
	txRangeConsumer     TransactionRangeConsumer

	unprocessed *UnprocessedElements
	logger      log.Logger
	metrics     *Metrics
}

// NewChainSynchronizer constructs a ChainSynchronizer. blockRangeConsumer
// and txRangeConsumer are the downstream pipeline's entry points;
// shortHashesSupplier reports which unconfirmed transactions this node
// already knows about.
func NewChainSynchronizer(
	local LocalChainApi,
	config ChainSynchronizerConfiguration,
	shortHashesSupplier ShortHashesSupplier,
	blockRangeConsumer CompletionAwareBlockRangeConsumer,
	txRangeConsumer TransactionRangeConsumer,
	logger log.Logger,
	metrics *Metrics,
) *ChainSynchronizer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &ChainSynchronizer{
		local:               local,
		config:              config,
		shortHashesSupplier: shortHashesSupplier,
		blockRangeConsumer:  blockRangeConsumer,
		txRangeConsumer:     txRangeConsumer,
		unprocessed:         NewUnprocessedElements(config.MaxUnprocessedBytes(), blockRangeConsumer, logger, metrics),
		logger:              logger,
		metrics:             metrics,
	}
}

// Synchronize runs a single sync round against remote, blocking until the
// round concludes. It returns no error: peer-sourced failures are demoted
// to NodeInteractionResult Failure. A FIFO violation in the pipeline's
// completion callbacks panics with a *FIFOViolationError on whichever
// goroutine fires the callback.
func (s *ChainSynchronizer) Synchronize(ctx context.Context, remote RemoteApi) (result NodeInteractionResult) {
	if !s.unprocessed.ShouldStartSync() {
		return Neutral
	}
	defer s.unprocessed.ClearPendingSync()

	comparison, err := s.compare(ctx, remote.Chain)
	if err != nil {
		s.logger.Debug("chain comparison failed", "err", err)
		s.recordRound(Failure)
		return Failure
	}

	result = s.dispatch(ctx, remote, comparison)
	s.recordRound(result)
	return result
}

func (s *ChainSynchronizer) recordRound(result NodeInteractionResult) {
	s.metrics.SyncRounds.With("result", result.String()).Add(1)
}

// compare either performs a real comparison against remote, or - when
// unprocessed elements are already in flight - synthesizes the
// "expand existing fetch" fast path without contacting the peer, avoiding a
// redundant comparison when a previous round already established
// divergence.
func (s *ChainSynchronizer) compare(ctx context.Context, remote RemoteChainApi) (CompareChainsResult, error) {
	if !s.unprocessed.Empty() {
		return CompareChainsResult{
			Code:              RemoteIsNotSynced,
			CommonBlockHeight: s.unprocessed.MaxHeight(),
			ForkDepth:         0,
		}, nil
	}

	return CompareChains(ctx, s.local, remote, CompareChainsOptions{
		MaxBlocksToAnalyze: s.config.MaxBlocksPerSyncAttempt,
		MaxRollbackBlocks:  s.config.MaxRollbackBlocks,
	})
}

func (s *ChainSynchronizer) dispatch(ctx context.Context, remote RemoteApi, comparison CompareChainsResult) NodeInteractionResult {
	switch comparison.Code {
	case RemoteReportedEqualChainScore:
		return s.pullTransactions(ctx, remote.Transaction)
	case RemoteReportedLowerChainScore:
		return Neutral
	case RemoteIsNotSynced:
		puller := NewBlockPuller(remote.Chain, s.unprocessed, &ChainSyncConfig{
			MaxRollbackBlocks:           s.config.MaxRollbackBlocks,
			MaxChainBytesPerSyncAttempt: s.config.MaxChainBytesPerSyncAttempt,
		}, s.logger, s.metrics)

		result, err := puller.Pull(ctx, comparison.CommonBlockHeight.Add(1), comparison.ForkDepth)
		if err != nil {
			s.logger.Debug("block pull failed", "err", err)
			return Failure
		}
		return result
	default:
		s.logger.Error("chain comparison returned a failure verdict", "code", comparison.Code)
		return Failure
	}
}

func (s *ChainSynchronizer) pullTransactions(ctx context.Context, remote RemoteTransactionApi) NodeInteractionResult {
	knownShortHashes := s.shortHashesSupplier()
	txRange, err := remote.UnconfirmedTransactions(ctx, knownShortHashes)
	if err != nil {
		s.logger.Debug("unconfirmed transaction pull failed", "err", err)
		return Failure
	}
	s.txRangeConsumer(txRange)
	return Neutral
}
