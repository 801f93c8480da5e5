package node

import "github.com/catapult-go/chainsync/internal/chain"

// StaticPeerSource is the simplest PeerSource: a fixed set of peers
// supplied at construction time. Gossip and peer discovery are out of
// scope for this daemon; a real deployment would replace this with a
// PeerSource backed by its own connection manager.
type StaticPeerSource struct {
	peers []chain.RemoteApi
}

// NewStaticPeerSource returns a PeerSource that always reports peers.
func NewStaticPeerSource(peers ...chain.RemoteApi) *StaticPeerSource {
	return &StaticPeerSource{peers: peers}
}

// Peers implements PeerSource.
func (s *StaticPeerSource) Peers() []chain.RemoteApi {
	return s.peers
}
