package chain

import "fmt"

// Height is an unsigned block index. It increases monotonically along a
// canonical chain. Height(0) denotes "no blocks".
type Height uint64

// NoHeight is the zero value, meaning no block is known yet.
const NoHeight Height = 0

// Add returns h + delta.
func (h Height) Add(delta uint64) Height {
	return Height(uint64(h) + delta)
}

// String implements fmt.Stringer.
func (h Height) String() string {
	return fmt.Sprintf("%d", uint64(h))
}
