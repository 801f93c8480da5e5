package chain

// RangeAggregator accumulates block ranges pulled across multiple requests
// within a single sync round and merges them into one contiguous range.
// It is single-threaded: a sync round owns its aggregator exclusively and
// never shares it across rounds or goroutines.
type RangeAggregator struct {
	ranges    []BlockRange
	numBlocks int
}

// NewRangeAggregator returns an empty aggregator.
func NewRangeAggregator() *RangeAggregator {
	return &RangeAggregator{}
}

// Add appends range_ to the accumulated set. The caller is responsible for
// pulling sequentially (next_height = previous_end + 1) so that Merge's
// contiguity precondition holds.
func (a *RangeAggregator) Add(range_ BlockRange) {
	a.ranges = append(a.ranges, range_)
	a.numBlocks += range_.Size()
}

// Empty reports whether any range has been added.
func (a *RangeAggregator) Empty() bool {
	return len(a.ranges) == 0
}

// NumBlocks returns the total number of blocks accumulated so far.
func (a *RangeAggregator) NumBlocks() int {
	return a.numBlocks
}

// Merge consumes the accumulated ranges and returns them as a single
// contiguous range. Merge must not be called on an empty aggregator.
func (a *RangeAggregator) Merge() (BlockRange, error) {
	merged, err := MergeRanges(a.ranges)
	if err != nil {
		return BlockRange{}, err
	}
	a.ranges = nil
	a.numBlocks = 0
	return merged, nil
}
