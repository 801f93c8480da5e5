package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTxApi struct {
	txs    TransactionRange
	err    error
	called bool
}

func (f *fakeTxApi) UnconfirmedTransactions(context.Context, []ShortHash) (TransactionRange, error) {
	f.called = true
	return f.txs, f.err
}

func newTestSynchronizer(t *testing.T, local LocalChainApi, cfg ChainSynchronizerConfiguration) (*ChainSynchronizer, *fakeConsumer, *[]TransactionRange) {
	t.Helper()
	consumer := &fakeConsumer{}
	var txRanges []TransactionRange
	s := NewChainSynchronizer(
		local,
		cfg,
		func() []ShortHash { return nil },
		consumer.consume,
		func(r TransactionRange) { txRanges = append(txRanges, r) },
		nil, nil,
	)
	return s, consumer, &txRanges
}

func testConfig() ChainSynchronizerConfiguration {
	return ChainSynchronizerConfiguration{
		MaxBlocksPerSyncAttempt:     350,
		MaxRollbackBlocks:           10,
		MaxChainBytesPerSyncAttempt: 1 << 30,
	}
}

func TestSynchronizeIdleEqualScoreIsNeutral(t *testing.T) {
	local := &fakeLocalChain{height: 100, score: 500}
	remote := RemoteApi{
		Chain:       &fakeRemoteChain{height: 100, score: 500},
		Transaction: &fakeTxApi{txs: NewTransactionRange(0)},
	}
	s, consumer, _ := newTestSynchronizer(t, local, testConfig())

	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Neutral, result)
	require.Empty(t, consumer.calls)
}

func TestSynchronizeIdleHigherScoreSingleBatch(t *testing.T) {
	hashes := map[Height]Hash256{}
	for h := Height(1); h <= 100; h++ {
		hashes[h] = fixedHash(h)
	}
	local := &fakeLocalChain{height: 100, score: 400, hashes: hashes}

	blocks := mustRange(t, blocksFrom(101, 5))
	remote := RemoteApi{
		Chain: &fakeRemoteChain{
			height: 105, score: 500, hashes: hashes,
			blocksFrom: func(_ context.Context, height Height, _ BlocksFromOptions) (BlockRange, error) {
				if height == 101 {
					return blocks, nil
				}
				return BlockRange{}, nil
			},
		},
	}

	s, consumer, _ := newTestSynchronizer(t, local, testConfig())
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Success, result)
	require.Len(t, consumer.calls, 1)
	require.Equal(t, 5, consumer.calls[0].range_.Size())
}

func TestSynchronizeIdleHigherScoreMultiBatch(t *testing.T) {
	hashes := map[Height]Hash256{}
	for h := Height(1); h <= 100; h++ {
		hashes[h] = fixedHash(h)
	}
	local := &fakeLocalChain{height: 100, score: 400, hashes: hashes}

	batch1 := mustRange(t, blocksFrom(101, 10))
	batch2 := mustRange(t, blocksFrom(111, 10))
	calls := 0
	remote := RemoteApi{
		Chain: &fakeRemoteChain{
			height: 150, score: 500, hashes: hashes,
			blocksFrom: func(_ context.Context, height Height, _ BlocksFromOptions) (BlockRange, error) {
				calls++
				switch height {
				case 101:
					return batch1, nil
				case 111:
					return batch2, nil
				default:
					return BlockRange{}, nil
				}
			},
		},
	}

	cfg := testConfig()
	cfg.MaxRollbackBlocks = 15 // fork_depth derived from this bounds pulling to >=15 blocks
	s, consumer, _ := newTestSynchronizer(t, local, cfg)
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Success, result)
	require.Equal(t, 2, calls)
	require.Len(t, consumer.calls, 1)
	require.Equal(t, 20, consumer.calls[0].range_.Size())
}

func TestSynchronizePullRefusedWhenSaturated(t *testing.T) {
	local := &fakeLocalChain{height: 100, score: 400}
	cfg := testConfig()
	cfg.MaxChainBytesPerSyncAttempt = 1 // MaxUnprocessedBytes() == 3

	s, consumer, _ := newTestSynchronizer(t, local, cfg)

	// Saturate the byte budget with a first round so the gate refuses a
	// second round outright.
	require.True(t, s.unprocessed.ShouldStartSync())
	_, err := s.unprocessed.Add(mustRange(t, blocksFrom(1, 1)))
	require.NoError(t, err)
	s.unprocessed.ClearPendingSync()

	remote := RemoteApi{Chain: &fakeRemoteChain{height: 105, score: 500}}
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Neutral, result)
	require.Len(t, consumer.calls, 1, "no new range should have reached the consumer from the refused round")
}

func TestSynchronizeAbnormalCompletionMidStream(t *testing.T) {
	hashes := map[Height]Hash256{}
	for h := Height(1); h <= 100; h++ {
		hashes[h] = fixedHash(h)
	}
	local := &fakeLocalChain{height: 100, score: 400, hashes: hashes}

	batch1 := mustRange(t, blocksFrom(101, 5))
	batch2 := mustRange(t, blocksFrom(106, 5))
	remoteChain := &fakeRemoteChain{
		height: 200, score: 500, hashes: hashes,
		blocksFrom: func(_ context.Context, height Height, _ BlocksFromOptions) (BlockRange, error) {
			switch height {
			case 101:
				return batch1, nil
			case 106:
				return batch2, nil
			default:
				return BlockRange{}, nil
			}
		},
	}
	remote := RemoteApi{Chain: remoteChain}

	cfg := testConfig()
	cfg.MaxRollbackBlocks = 5 // fork_depth equals the batch size: one request per round
	s, consumer, _ := newTestSynchronizer(t, local, cfg)

	// Round 1 hands off the first range and leaves it in flight.
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Success, result)
	require.Len(t, consumer.calls, 1)

	// Round 2 finds unprocessed elements still in flight and takes the fast
	// path, pulling the next range without recontacting the comparator.
	result = s.Synchronize(context.Background(), remote)
	require.Equal(t, Success, result)
	require.Len(t, consumer.calls, 2)

	// The first range completes abnormally while the second is still
	// pending: the subsystem goes dirty until everything drains.
	consumer.complete(0, StatusAborted)
	require.True(t, s.unprocessed.dirty)
	require.False(t, s.unprocessed.ShouldStartSync(), "a dirty subsystem must refuse further rounds until it drains")

	consumer.complete(1, StatusNormal)
	require.True(t, s.unprocessed.Empty())
}

func TestSynchronizePeerErrorOnBlockRequestIsFailure(t *testing.T) {
	hashes := map[Height]Hash256{}
	for h := Height(1); h <= 100; h++ {
		hashes[h] = fixedHash(h)
	}
	local := &fakeLocalChain{height: 100, score: 400, hashes: hashes}

	remote := RemoteApi{
		Chain: &fakeRemoteChain{
			height: 105, score: 500, hashes: hashes,
			blocksFrom: func(context.Context, Height, BlocksFromOptions) (BlockRange, error) {
				return BlockRange{}, errors.New("connection reset")
			},
		},
	}

	s, consumer, _ := newTestSynchronizer(t, local, testConfig())
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Failure, result)
	require.Empty(t, consumer.calls)
}

func TestSynchronizeLowerScoreIsNeutral(t *testing.T) {
	local := &fakeLocalChain{height: 100, score: 500}
	remote := RemoteApi{Chain: &fakeRemoteChain{height: 100, score: 400}}

	s, consumer, _ := newTestSynchronizer(t, local, testConfig())
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Neutral, result)
	require.Empty(t, consumer.calls)
}

func TestSynchronizeEqualScorePullsTransactions(t *testing.T) {
	local := &fakeLocalChain{height: 100, score: 500}
	tx := &fakeTxApi{txs: NewTransactionRange(3)}
	remote := RemoteApi{
		Chain:       &fakeRemoteChain{height: 100, score: 500},
		Transaction: tx,
	}

	s, _, txRanges := newTestSynchronizer(t, local, testConfig())
	result := s.Synchronize(context.Background(), remote)
	require.Equal(t, Neutral, result)
	require.True(t, tx.called)
	require.Len(t, *txRanges, 1)
	require.Equal(t, 3, (*txRanges)[0].Len())
}
