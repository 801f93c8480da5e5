package chain

import "context"

// BlocksFromOptions bounds a single blocksFrom request.
type BlocksFromOptions struct {
	NumBlocksLimit uint32
	NumBytesLimit  uint64
}

// CompareChainsOptions bounds a single chain-comparison round.
type CompareChainsOptions struct {
	MaxBlocksToAnalyze uint32
	MaxRollbackBlocks  uint32
}

// LocalChainApi answers height/score/hash queries against this node's own
// chain, for use by the chain comparator.
type LocalChainApi interface {
	// ChainHeight returns the height of the local chain's last block.
	ChainHeight(ctx context.Context) (Height, error)
	// ChainScore returns a score comparable with a peer's, used to decide
	// whether the remote chain is ahead, equal, or behind.
	ChainScore(ctx context.Context) (ChainScore, error)
	// HashesFrom returns up to maxHashes consecutive block hashes starting
	// at height, used to locate the common ancestor with a peer.
	HashesFrom(ctx context.Context, height Height, maxHashes uint32) ([]Hash256, error)
}

// RemoteChainApi is the chain-facing half of a peer's API.
type RemoteChainApi interface {
	// ChainHeight returns the peer's reported chain height.
	ChainHeight(ctx context.Context) (Height, error)
	// ChainScore returns the peer's reported chain score.
	ChainScore(ctx context.Context) (ChainScore, error)
	// HashesFrom returns up to maxHashes consecutive block hashes from the
	// peer's chain, starting at height.
	HashesFrom(ctx context.Context, height Height, maxHashes uint32) ([]Hash256, error)
	// BlocksFrom requests a bounded range of blocks starting at height.
	// An empty, error-free result means the peer has nothing more to offer
	// at or above height.
	BlocksFrom(ctx context.Context, height Height, options BlocksFromOptions) (BlockRange, error)
}

// TransactionRange is an ordered set of unconfirmed transactions returned
// by a peer. The transaction wire format is outside the scope of this
// package; only the count is observed by the core.
type TransactionRange struct {
	count int
}

// NewTransactionRange wraps a transaction count pulled from a peer.
func NewTransactionRange(count int) TransactionRange {
	return TransactionRange{count: count}
}

// Len returns the number of transactions in the range.
func (r TransactionRange) Len() int {
	return r.count
}

// RemoteTransactionApi is the transaction-facing half of a peer's API.
type RemoteTransactionApi interface {
	// UnconfirmedTransactions requests transactions the peer knows about
	// that are not among knownShortHashes.
	UnconfirmedTransactions(ctx context.Context, knownShortHashes []ShortHash) (TransactionRange, error)
}

// RemoteApi bundles the chain and transaction APIs exposed by a single peer.
// One ChainSynchronizer invocation targets exactly one RemoteApi.
type RemoteApi struct {
	Chain       RemoteChainApi
	Transaction RemoteTransactionApi
}

// CompletionCallback is invoked exactly once by the downstream consumer for
// every range accepted by CompletionAwareBlockRangeConsumer, reporting how
// that range's processing concluded.
type CompletionCallback func(id ElementID, status CompletionStatus)

// CompletionAwareBlockRangeConsumer hands a block range to the downstream
// processing pipeline (a disruptor of consumers, out of scope here) and
// returns an opaque id for it. The consumer must invoke callback exactly
// once, with that same id, when it finishes processing the range -
// successfully or not - even if that happens after the synchronizer that
// submitted the range has been destroyed.
//
// UnprocessedElements.Add calls the consumer while holding its lock, so the
// consumer must return quickly without blocking, and must not invoke
// callback on the calling goroutine before it returns.
type CompletionAwareBlockRangeConsumer func(range_ BlockRange, callback CompletionCallback) ElementID

// TransactionRangeConsumer forwards unconfirmed transactions pulled from a
// peer into the downstream pipeline. It does not report completion.
type TransactionRangeConsumer func(TransactionRange)

// ShortHashesSupplier returns the short hashes of transactions this node
// already knows about, so a peer can elide them from its response.
type ShortHashesSupplier func() []ShortHash
