package chain

import "fmt"

// DropLengthPrefix strips the leading element count from an array result.
func DropLengthPrefix(values []Felt) ([]Felt, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty array result", ErrMalformedResponse)
	}
	return values[1:], nil
}

// SplitRecords slices values into records of width elements. Trailing
// elements that do not fill a record are returned as remainder.
func SplitRecords(values []Felt, width int) ([][]Felt, []Felt) {
	if width <= 0 {
		return nil, values
	}
	records := make([][]Felt, 0, len(values)/width)
	i := 0
	for ; i+width <= len(values); i += width {
		records = append(records, values[i:i+width])
	}
	return records, values[i:]
}

// CheckWidth returns ErrInvariantViolation unless n is a non-zero multiple of width.
func CheckWidth(n, width int) error {
	if n == 0 || width <= 0 || n%width != 0 {
		return fmt.Errorf("%w: length %d is not a non-zero multiple of %d", ErrInvariantViolation, n, width)
	}
	return nil
}

// Single returns the first value of a scalar result.
func Single(values []Felt) (Felt, error) {
	if len(values) == 0 {
		return Felt{}, fmt.Errorf("%w: empty scalar result", ErrMalformedResponse)
	}
	return values[0], nil
}
