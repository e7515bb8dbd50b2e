package chain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Felt is a StarkNet field element.
type Felt = fp.Element

// ParseFelt parses a hex (0x-prefixed) or decimal string into a felt.
// Values outside [0, p) are rejected rather than reduced.
func ParseFelt(s string) (Felt, error) {
	var f Felt
	s = strings.TrimSpace(s)
	if s == "" {
		return f, fmt.Errorf("empty felt")
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return f, fmt.Errorf("parse felt %q: invalid number", s)
	}
	if v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return f, fmt.Errorf("parse felt %q: out of field range", s)
	}
	f.SetBigInt(v)
	return f, nil
}

// MustFelt parses s and panics on failure. Only for constants.
func MustFelt(s string) Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

// FeltFromUint64 builds a felt from v.
func FeltFromUint64(v uint64) Felt {
	var f Felt
	f.SetUint64(v)
	return f
}

// Hex formats f as 0x-prefixed lowercase hex without leading zeros.
func Hex(f *Felt) string {
	return "0x" + f.Text(16)
}

// Decimal formats f in base 10.
func Decimal(f *Felt) string {
	return f.Text(10)
}

// NormalizeHex rewrites a hex address into the canonical Hex form so that
// addresses coming from different sources compare equal.
func NormalizeHex(s string) (string, error) {
	f, err := ParseFelt(s)
	if err != nil {
		return "", err
	}
	return Hex(&f), nil
}

// ParseSmallInt reads a small integer field by way of its decimal string.
func ParseSmallInt(f *Felt, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(Decimal(f), 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return v, nil
}

// ShortString encodes an ASCII string of at most 31 bytes as a Cairo short string.
func ShortString(s string) (Felt, error) {
	var f Felt
	if len(s) > 31 {
		return f, fmt.Errorf("short string too long: %d bytes", len(s))
	}
	f.SetBytes([]byte(s))
	return f, nil
}

// Uint256Hex joins the low and high 128-bit limbs of a Cairo Uint256 into hex.
func Uint256Hex(low, high *Felt) string {
	lo := low.BigInt(new(big.Int))
	hi := high.BigInt(new(big.Int))
	hi.Lsh(hi, 128)
	hi.Or(hi, lo)
	return "0x" + hi.Text(16)
}
