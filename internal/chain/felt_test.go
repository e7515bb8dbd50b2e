package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	tests := [...]struct {
		input, want string
	}{
		{"", "0x1d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"starknet", "0x14909ac0d4a034239ea4f7265fac97d189ff7430fec65bce3879ab4b5a8d058"},
		{"keccak", "0x335a135a69c769066bbb4d17b2fa3ec922c028d4e4bf9d0402e6f7c12b31813"},
	}
	for _, test := range tests {
		sel := Selector(test.input)
		assert.Equal(t, test.want, Hex(&sel), "selector of %q", test.input)
	}
}

func TestParseFelt(t *testing.T) {
	f, err := ParseFelt("0x00AB")
	require.NoError(t, err)
	assert.Equal(t, "0xab", Hex(&f))
	assert.Equal(t, "171", Decimal(&f))

	f, err = ParseFelt("42")
	require.NoError(t, err)
	assert.Equal(t, "0x2a", Hex(&f))

	zero := FeltFromUint64(0)
	assert.Equal(t, "0x0", Hex(&zero))

	_, err = ParseFelt("")
	assert.Error(t, err)
	_, err = ParseFelt("0xzz")
	assert.Error(t, err)

	// p = 2^251 + 17*2^192 + 1
	f, err = ParseFelt("0x800000000000011000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "0x800000000000011000000000000000000000000000000000000000000000000", Hex(&f))
	for _, input := range []string{
		"0x800000000000011000000000000000000000000000000000000000000000001",
		"0x800000000000011000000000000000000000000000000000000000000000002",
		"0x1000000000000000000000000000000000000000000000000000000000000000",
		"-1",
	} {
		_, err = ParseFelt(input)
		assert.Error(t, err, "input %s", input)
	}
}

func TestNormalizeHex(t *testing.T) {
	got, err := NormalizeHex("0x0070CAD6")
	require.NoError(t, err)
	assert.Equal(t, "0x70cad6", got)
}

func TestParseSmallInt(t *testing.T) {
	f := FeltFromUint64(1700000000)
	v, err := ParseSmallInt(&f, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), v)

	big := MustFelt("0x100000")
	_, err = ParseSmallInt(&big, 16)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestShortString(t *testing.T) {
	f, err := ShortString("ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, "0x4554482f555344", Hex(&f))

	_, err = ShortString("this string is definitely longer than 31 bytes")
	assert.Error(t, err)
}

func TestUint256Hex(t *testing.T) {
	low := FeltFromUint64(1)
	high := FeltFromUint64(1)
	assert.Equal(t, "0x100000000000000000000000000000001", Uint256Hex(&low, &high))

	zero := FeltFromUint64(0)
	assert.Equal(t, "0x0", Uint256Hex(&zero, &zero))
}
