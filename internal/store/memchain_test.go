package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/catapult-go/chainsync/internal/chain"
)

func fixedHash(b byte) chain.Hash256 {
	var h chain.Hash256
	h[0] = b
	return h
}

func TestNewChainStoreEmptyDB(t *testing.T) {
	s, err := NewChainStore(dbm.NewMemDB())
	require.NoError(t, err)

	height, err := s.ChainHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.NoHeight, height)

	score, err := s.ChainScore(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.ChainScore(0), score)
}

func TestChainStorePutBlockThenQuery(t *testing.T) {
	s, err := NewChainStore(dbm.NewMemDB())
	require.NoError(t, err)

	require.NoError(t, s.PutBlock(1, fixedHash(1), 10))
	require.NoError(t, s.PutBlock(2, fixedHash(2), 20))
	require.NoError(t, s.PutBlock(3, fixedHash(3), 30))

	height, err := s.ChainHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.Height(3), height)

	score, err := s.ChainScore(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.ChainScore(30), score)

	hashes, err := s.HashesFrom(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, []chain.Hash256{fixedHash(1), fixedHash(2), fixedHash(3)}, hashes)
}

// HashesFrom must stop at the chain tip rather than returning zero-valued
// hashes for heights that were never written.
func TestChainStoreHashesFromStopsAtTip(t *testing.T) {
	s, err := NewChainStore(dbm.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, s.PutBlock(1, fixedHash(1), 10))

	hashes, err := s.HashesFrom(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, []chain.Hash256{fixedHash(1)}, hashes)
}

// A freshly constructed ChainStore backed by a db that already has
// persisted state must restore height and score from it, not start at zero.
func TestNewChainStoreRestoresPersistedState(t *testing.T) {
	db := dbm.NewMemDB()

	s1, err := NewChainStore(db)
	require.NoError(t, err)
	require.NoError(t, s1.PutBlock(5, fixedHash(5), 50))

	s2, err := NewChainStore(db)
	require.NoError(t, err)

	height, err := s2.ChainHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.Height(5), height)

	score, err := s2.ChainScore(context.Background())
	require.NoError(t, err)
	require.Equal(t, chain.ChainScore(50), score)

	hashes, err := s2.HashesFrom(context.Background(), 5, 1)
	require.NoError(t, err)
	require.Equal(t, []chain.Hash256{fixedHash(5)}, hashes)
}

func TestChainStoreHashesFromPastTipReturnsEmpty(t *testing.T) {
	s, err := NewChainStore(dbm.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, s.PutBlock(1, fixedHash(1), 10))

	hashes, err := s.HashesFrom(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Empty(t, hashes)
}
