package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/catapult-go/chainsync/internal/chain"
	dbm "github.com/tendermint/tm-db"
)

// ChainStore is a minimal chain.LocalChainApi backed by a tm-db key/value
// store. It exists to give the chain synchronizer a concrete local chain to
// compare against in tests and in the reference daemon; a full node would
// back LocalChainApi with its actual block index instead.
//
// Keys:
//
//	"h/<height>" -> block hash (32 bytes)
//	"score"      -> chain score (8 bytes, big endian)
//	"height"     -> chain height (8 bytes, big endian)
type ChainStore struct {
	db dbm.DB

	mtx    sync.RWMutex
	height chain.Height
	score  chain.ChainScore
}

// NewChainStore returns a ChainStore backed by db, restoring height and
// score already persisted there.
func NewChainStore(db dbm.DB) (*ChainStore, error) {
	s := &ChainStore{db: db}

	heightBytes, err := db.Get(heightKey())
	if err != nil {
		return nil, fmt.Errorf("loading height: %w", err)
	}
	if len(heightBytes) == 8 {
		s.height = chain.Height(binary.BigEndian.Uint64(heightBytes))
	}

	scoreBytes, err := db.Get(scoreKey())
	if err != nil {
		return nil, fmt.Errorf("loading score: %w", err)
	}
	if len(scoreBytes) == 8 {
		s.score = chain.ChainScore(binary.BigEndian.Uint64(scoreBytes))
	}

	return s, nil
}

// ChainHeight implements chain.LocalChainApi.
func (s *ChainStore) ChainHeight(_ context.Context) (chain.Height, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.height, nil
}

// ChainScore implements chain.LocalChainApi.
func (s *ChainStore) ChainScore(_ context.Context) (chain.ChainScore, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.score, nil
}

// HashesFrom implements chain.LocalChainApi.
func (s *ChainStore) HashesFrom(_ context.Context, height chain.Height, maxHashes uint32) ([]chain.Hash256, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	hashes := make([]chain.Hash256, 0, maxHashes)
	for i := uint32(0); i < maxHashes; i++ {
		h := height.Add(uint64(i))
		if h > s.height {
			break
		}
		raw, err := s.db.Get(blockHashKey(h))
		if err != nil {
			return nil, fmt.Errorf("loading hash at height %s: %w", h, err)
		}
		if len(raw) != 32 {
			break
		}
		var hash chain.Hash256
		copy(hash[:], raw)
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// PutBlock records hash at height and makes height and score the new chain
// tip, persisting all three to the underlying db in one batch. It does not
// check that height follows the current tip.
func (s *ChainStore) PutBlock(height chain.Height, hash chain.Hash256, score chain.ChainScore) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockHashKey(height), hash[:]); err != nil {
		return err
	}
	if err := batch.Set(heightKey(), encodeUint64(uint64(height))); err != nil {
		return err
	}
	if err := batch.Set(scoreKey(), encodeUint64(uint64(score))); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	s.height = height
	s.score = score
	return nil
}

func blockHashKey(height chain.Height) []byte {
	return []byte(fmt.Sprintf("h/%020d", uint64(height)))
}

func heightKey() []byte { return []byte("height") }
func scoreKey() []byte  { return []byte("score") }

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
