package indexer

import "fmt"

// BlockRange is an inclusive block range walked with a fixed step.
type BlockRange struct {
	From uint64
	To   uint64
	Step uint64
}

// NewBlockRange validates and builds a range.
func NewBlockRange(from, to, step uint64) (BlockRange, error) {
	if step == 0 {
		return BlockRange{}, fmt.Errorf("step must be greater than zero")
	}
	if to < from {
		return BlockRange{}, fmt.Errorf("to block must be >= from block")
	}
	return BlockRange{From: from, To: to, Step: step}, nil
}

// Next returns the block after n, or false once the range is exhausted.
func (r BlockRange) Next(n uint64) (uint64, bool) {
	if r.To-n < r.Step {
		return 0, false
	}
	return n + r.Step, true
}

// Count returns how many blocks the range visits.
func (r BlockRange) Count() uint64 {
	if r.Step == 0 || r.To < r.From {
		return 0
	}
	return (r.To-r.From)/r.Step + 1
}
