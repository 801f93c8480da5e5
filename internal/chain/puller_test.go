package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedRemote answers BlocksFrom with one entry from replies per call,
// in order.
type scriptedRemote struct {
	replies []BlockRange
	errs    []error
	calls   int
}

func (s *scriptedRemote) ChainHeight(context.Context) (Height, error)   { return NoHeight, nil }
func (s *scriptedRemote) ChainScore(context.Context) (ChainScore, error) { return 0, nil }
func (s *scriptedRemote) HashesFrom(context.Context, Height, uint32) ([]Hash256, error) {
	return nil, nil
}
func (s *scriptedRemote) BlocksFrom(_ context.Context, _ Height, _ BlocksFromOptions) (BlockRange, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return BlockRange{}, s.errs[i]
	}
	if i >= len(s.replies) {
		return BlockRange{}, nil
	}
	return s.replies[i], nil
}

func newTestPuller(t *testing.T, remote RemoteChainApi, maxUnprocessedBytes uint64) (*BlockPuller, *UnprocessedElements, *fakeConsumer) {
	t.Helper()
	consumer := &fakeConsumer{}
	unprocessed := NewUnprocessedElements(maxUnprocessedBytes, consumer.consume, nil, nil)
	cfg := &ChainSyncConfig{MaxRollbackBlocks: 350, MaxChainBytesPerSyncAttempt: 1 << 30}
	return NewBlockPuller(remote, unprocessed, cfg, nil, nil), unprocessed, consumer
}

func TestBlockPullerForkDepthZeroEmptyReplyIsNeutral(t *testing.T) {
	remote := &scriptedRemote{replies: []BlockRange{{}}}
	puller, _, _ := newTestPuller(t, remote, 1<<30)

	result, err := puller.Pull(context.Background(), 101, 0)
	require.NoError(t, err)
	require.Equal(t, Neutral, result)
	require.Equal(t, 1, remote.calls)
}

func TestBlockPullerForkDepthZeroSingleRequestCompletes(t *testing.T) {
	remote := &scriptedRemote{replies: []BlockRange{mustRange(t, blocksFrom(101, 5))}}
	puller, unprocessed, consumer := newTestPuller(t, remote, 1<<30)

	result, err := puller.Pull(context.Background(), 101, 0)
	require.NoError(t, err)
	require.Equal(t, Success, result)
	require.Equal(t, 1, remote.calls, "fork_depth 0 must complete after a single non-empty reply")
	require.Len(t, consumer.calls, 1)
	require.Equal(t, 5, consumer.calls[0].range_.Size())
	require.False(t, unprocessed.Empty())
}

func TestBlockPullerMultiBatchPulling(t *testing.T) {
	remote := &scriptedRemote{replies: []BlockRange{
		mustRange(t, blocksFrom(101, 10)),
		mustRange(t, blocksFrom(111, 10)),
		mustRange(t, blocksFrom(121, 10)),
	}}
	puller, _, consumer := newTestPuller(t, remote, 1<<30)

	result, err := puller.Pull(context.Background(), 101, 25)
	require.NoError(t, err)
	require.Equal(t, Success, result)
	require.Equal(t, 3, remote.calls)
	require.Len(t, consumer.calls, 1)
	require.Equal(t, 30, consumer.calls[0].range_.Size())
	require.Equal(t, Height(101), consumer.calls[0].range_.First().Height)
	require.Equal(t, Height(130), consumer.calls[0].range_.Last().Height)
}

func TestBlockPullerStopsWhenPeerReturnsEmptyBeforeForkDepthReached(t *testing.T) {
	remote := &scriptedRemote{replies: []BlockRange{
		mustRange(t, blocksFrom(101, 5)),
		{},
	}}
	puller, _, consumer := newTestPuller(t, remote, 1<<30)

	result, err := puller.Pull(context.Background(), 101, 50)
	require.NoError(t, err)
	require.Equal(t, Success, result)
	require.Equal(t, 2, remote.calls)
	require.Len(t, consumer.calls, 1)
	require.Equal(t, 5, consumer.calls[0].range_.Size())
}

func TestBlockPullerPeerErrorIsFailure(t *testing.T) {
	remote := &scriptedRemote{errs: []error{errors.New("peer unreachable")}}
	puller, _, consumer := newTestPuller(t, remote, 1<<30)

	result, err := puller.Pull(context.Background(), 101, 10)
	require.Error(t, err)
	require.Equal(t, Failure, result)
	require.Empty(t, consumer.calls)
}

func TestBlockPullerRefusedAdmissionIsNeutral(t *testing.T) {
	remote := &scriptedRemote{replies: []BlockRange{mustRange(t, blocksFrom(201, 5))}}
	puller, unprocessed, consumer := newTestPuller(t, remote, 1<<30)

	// Drive the subsystem dirty: a prior range in flight completes
	// abnormally while a round is still pending, so Add refuses admission.
	require.True(t, unprocessed.ShouldStartSync())
	_, err := unprocessed.Add(mustRange(t, blocksFrom(101, 5)))
	require.NoError(t, err)
	consumer.complete(0, StatusAborted)
	require.True(t, unprocessed.dirty)

	result, err := puller.Pull(context.Background(), 201, 0)
	require.NoError(t, err)
	require.Equal(t, Neutral, result)
	require.Len(t, consumer.calls, 1, "the puller's own range must not reach the consumer once dirty")
}
