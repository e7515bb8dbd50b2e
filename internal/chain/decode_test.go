package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func felts(values ...uint64) []Felt {
	out := make([]Felt, 0, len(values))
	for _, v := range values {
		out = append(out, FeltFromUint64(v))
	}
	return out
}

func TestDropLengthPrefix(t *testing.T) {
	got, err := DropLengthPrefix(felts(2, 10, 11))
	require.NoError(t, err)
	assert.Equal(t, felts(10, 11), got)

	_, err = DropLengthPrefix(nil)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSplitRecords(t *testing.T) {
	records, rest := SplitRecords(felts(1, 2, 3, 4, 5, 6, 7), 3)
	require.Len(t, records, 2)
	assert.Equal(t, felts(1, 2, 3), records[0])
	assert.Equal(t, felts(4, 5, 6), records[1])
	assert.Equal(t, felts(7), rest)

	records, rest = SplitRecords(felts(1, 2), 3)
	assert.Empty(t, records)
	assert.Len(t, rest, 2)
}

func TestCheckWidth(t *testing.T) {
	assert.NoError(t, CheckWidth(14, 7))
	assert.ErrorIs(t, CheckWidth(10, 7), ErrInvariantViolation)
	assert.ErrorIs(t, CheckWidth(0, 7), ErrInvariantViolation)
}
