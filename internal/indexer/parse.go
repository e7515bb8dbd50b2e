package indexer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxGapBlocks bounds how many blocks one block list may name.
const MaxGapBlocks = 100_000

// ParseBlockList parses block numbers and inclusive ranges such as
// "120", "130-135" into a sorted list without duplicates.
func ParseBlockList(inputs []string) ([]uint64, error) {
	seen := make(map[uint64]struct{})
	for _, input := range inputs {
		for _, item := range strings.Split(input, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}

			from, to, isRange := strings.Cut(item, "-")
			start, err := strconv.ParseUint(strings.TrimSpace(from), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid block: %s", item)
			}
			end := start
			if isRange {
				end, err = strconv.ParseUint(strings.TrimSpace(to), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid block range: %s", item)
				}
				if end < start {
					return nil, fmt.Errorf("invalid block range: %s", item)
				}
				if end-start >= MaxGapBlocks {
					return nil, fmt.Errorf("block range %s exceeds %d blocks", item, MaxGapBlocks)
				}
			}
			for n := start; ; n++ {
				seen[n] = struct{}{}
				if n == end {
					break
				}
			}
			if len(seen) > MaxGapBlocks {
				return nil, fmt.Errorf("block list exceeds %d blocks", MaxGapBlocks)
			}
		}
	}

	blocks := make([]uint64, 0, len(seen))
	for n := range seen {
		blocks = append(blocks, n)
	}
	sortBlocks(blocks)
	return blocks, nil
}

func sortBlocks(blocks []uint64) {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
}
