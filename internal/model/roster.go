package model

import (
	"fmt"
	"strconv"
)

// RosterWidth is the number of fields describing one non-expired option.
const RosterWidth = 7

// RosterRecord is one non-expired option as returned by the chain:
// side, maturity, strike, quote token, base token, type, premia.
// Values are decimal strings.
type RosterRecord [RosterWidth]string

// Expiry returns the maturity field as unix seconds.
func (r RosterRecord) Expiry() (int64, error) {
	ts, err := strconv.ParseInt(r[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse expiry %q: %w", r[1], err)
	}
	return ts, nil
}

// RosterRecords splits a flat roster into records. The caller must have
// checked that the length is a multiple of RosterWidth.
func RosterRecords(flat []string) []RosterRecord {
	records := make([]RosterRecord, 0, len(flat)/RosterWidth)
	for i := 0; i+RosterWidth <= len(flat); i += RosterWidth {
		var rec RosterRecord
		copy(rec[:], flat[i:i+RosterWidth])
		records = append(records, rec)
	}
	return records
}

// FlattenRoster concatenates records back into the wire layout.
func FlattenRoster(records []RosterRecord) []string {
	flat := make([]string, 0, len(records)*RosterWidth)
	for _, rec := range records {
		flat = append(flat, rec[:]...)
	}
	return flat
}
