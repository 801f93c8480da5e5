package chain

import (
	"context"
	"fmt"
)

// ChainComparisonCode is the verdict returned by CompareChains.
type ChainComparisonCode int

const (
	// RemoteReportedEqualChainScore means the peer's chain carries the
	// same weight as the local chain; no blocks need pulling.
	RemoteReportedEqualChainScore ChainComparisonCode = iota
	// RemoteReportedLowerChainScore means the peer is behind; nothing to
	// do this round.
	RemoteReportedLowerChainScore
	// RemoteIsNotSynced means the peer's chain outweighs the local chain
	// and diverges at CommonBlockHeight, within the configured rollback
	// budget; pulling is required.
	RemoteIsNotSynced
	// RemoteIsForked means the peer's chain outweighs the local chain but
	// no common ancestor could be found within max_rollback_blocks;
	// reorganizing this far back is refused and the round is a failure.
	RemoteIsForked
	// RemoteReportedHigherScoreButNoBlocks means the peer claimed a
	// higher score but reported no chain height at all.
	RemoteReportedHigherScoreButNoBlocks
)

// String implements fmt.Stringer.
func (c ChainComparisonCode) String() string {
	switch c {
	case RemoteReportedEqualChainScore:
		return "remote_reported_equal_chain_score"
	case RemoteReportedLowerChainScore:
		return "remote_reported_lower_chain_score"
	case RemoteIsNotSynced:
		return "remote_is_not_synced"
	case RemoteIsForked:
		return "remote_is_forked"
	case RemoteReportedHigherScoreButNoBlocks:
		return "remote_reported_higher_score_but_no_blocks"
	default:
		return "unknown"
	}
}

// IsFailure reports whether the code should be mapped to
// NodeInteractionResult Failure by the synchronizer's dispatch table, per
// the deterministic table in the error handling design.
func (c ChainComparisonCode) IsFailure() bool {
	switch c {
	case RemoteIsForked, RemoteReportedHigherScoreButNoBlocks:
		return true
	default:
		return false
	}
}

// CompareChainsResult is the verdict of one chain-comparison round.
type CompareChainsResult struct {
	Code              ChainComparisonCode
	CommonBlockHeight Height
	ForkDepth         uint32
}

// CompareChains compares the local chain against a peer's. When the peer's
// score is higher, it backtracks through hashes looking for the common
// ancestor, never looking back further than options.MaxRollbackBlocks
// blocks from the local tip; failing to find one within that budget is
// reported as RemoteIsForked rather than silently picking an older, less
// trustworthy ancestor.
func CompareChains(ctx context.Context, local LocalChainApi, remote RemoteChainApi, options CompareChainsOptions) (CompareChainsResult, error) {
	localScore, err := local.ChainScore(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("querying local chain score: %w", err)
	}
	remoteScore, err := remote.ChainScore(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("querying remote chain score: %w", err)
	}

	switch remoteScore.Compare(localScore) {
	case 0:
		return CompareChainsResult{Code: RemoteReportedEqualChainScore}, nil
	case -1:
		return CompareChainsResult{Code: RemoteReportedLowerChainScore}, nil
	}

	remoteHeight, err := remote.ChainHeight(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("querying remote chain height: %w", err)
	}
	if remoteHeight == NoHeight {
		return CompareChainsResult{Code: RemoteReportedHigherScoreButNoBlocks}, nil
	}

	localHeight, err := local.ChainHeight(ctx)
	if err != nil {
		return CompareChainsResult{}, fmt.Errorf("querying local chain height: %w", err)
	}

	if localHeight == NoHeight {
		// Nothing local to compare against: sync from the beginning.
		return CompareChainsResult{Code: RemoteIsNotSynced, CommonBlockHeight: NoHeight, ForkDepth: options.MaxRollbackBlocks}, nil
	}

	commonHeight, found, err := findCommonAncestor(ctx, local, remote, localHeight, options.MaxRollbackBlocks)
	if err != nil {
		return CompareChainsResult{}, err
	}
	if !found {
		return CompareChainsResult{Code: RemoteIsForked}, nil
	}
	return CompareChainsResult{Code: RemoteIsNotSynced, CommonBlockHeight: commonHeight, ForkDepth: options.MaxRollbackBlocks}, nil
}

// findCommonAncestor walks backward from localHeight, comparing hashes a
// batch at a time, until it finds a height at which local and remote agree
// or it has walked back maxRollbackBlocks blocks without finding one.
func findCommonAncestor(ctx context.Context, local LocalChainApi, remote RemoteChainApi, localHeight Height, maxRollbackBlocks uint32) (Height, bool, error) {
	const batchSize = 64
	var walked uint32
	for walked <= maxRollbackBlocks {
		remaining := maxRollbackBlocks - walked
		count := uint32(batchSize)
		if remaining+1 < count {
			count = remaining + 1
		}
		if uint64(count) > uint64(localHeight)-uint64(walked) {
			count = uint32(uint64(localHeight) - uint64(walked))
		}
		if count == 0 {
			return NoHeight, false, nil
		}

		startHeight := Height(uint64(localHeight) - uint64(walked) - uint64(count) + 1)

		localHashes, err := local.HashesFrom(ctx, startHeight, count)
		if err != nil {
			return NoHeight, false, fmt.Errorf("querying local hashes from %s: %w", startHeight, err)
		}
		remoteHashes, err := remote.HashesFrom(ctx, startHeight, count)
		if err != nil {
			return NoHeight, false, fmt.Errorf("querying remote hashes from %s: %w", startHeight, err)
		}

		n := len(localHashes)
		if len(remoteHashes) < n {
			n = len(remoteHashes)
		}
		for i := n - 1; i >= 0; i-- {
			if localHashes[i] == remoteHashes[i] {
				return startHeight.Add(uint64(i)), true, nil
			}
		}

		walked += count
	}
	return NoHeight, false, nil
}
