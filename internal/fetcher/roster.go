package fetcher

import (
	"context"
	"fmt"

	"optionScope/internal/chain"
)

// FetchNonExpiredRoster returns the current non-expired options of both
// pools, call pool first, as a flat sequence of decimal strings. A failure
// of either call fails the whole fetch.
func (f *Fetcher) FetchNonExpiredRoster(ctx context.Context) ([]string, error) {
	pools := []chain.Felt{f.callPool, f.putPool}
	parts, err := fanOut(pools, func(pool *chain.Felt) ([]string, error) {
		values, err := f.call(ctx, entryNonExpiredOptions, chain.LatestBlock, *pool)
		if err != nil {
			return nil, err
		}
		values, err = chain.DropLengthPrefix(values)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", chain.Hex(pool), err)
		}
		out := make([]string, 0, len(values))
		for i := range values {
			out = append(out, chain.Decimal(&values[i]))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch non-expired options: %w", err)
	}

	var flat []string
	for _, part := range parts {
		flat = append(flat, part...)
	}
	return flat, nil
}
