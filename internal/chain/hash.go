package chain

import "encoding/hex"

// Hash256 is a 32-byte block or transaction digest. The wire format that
// produces it is outside the scope of this package.
type Hash256 [32]byte

// String renders the hash as lowercase hexadecimal.
func (h Hash256) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// ShortHash is a truncated transaction hash used to summarize the set of
// locally known unconfirmed transactions, avoiding a full-hash round trip
// when a peer asks what we already know about.
type ShortHash [4]byte
