package cache

import (
	"go.uber.org/zap"

	"optionScope/internal/model"
)

// MergeRoster appends every fetched record that is not already present,
// compared field by field. Cached order is kept.
func MergeRoster(cached, fetched []model.RosterRecord) []model.RosterRecord {
	merged := make([]model.RosterRecord, 0, len(cached)+len(fetched))
	seen := make(map[model.RosterRecord]struct{}, len(cached)+len(fetched))
	for _, group := range [][]model.RosterRecord{cached, fetched} {
		for _, rec := range group {
			if _, ok := seen[rec]; ok {
				continue
			}
			seen[rec] = struct{}{}
			merged = append(merged, rec)
		}
	}
	return merged
}

// PruneExpired keeps the records whose expiry is strictly after now.
// Records with an unreadable expiry are dropped.
func PruneExpired(records []model.RosterRecord, now int64, logger *zap.Logger) []model.RosterRecord {
	kept := make([]model.RosterRecord, 0, len(records))
	for _, rec := range records {
		expiry, err := rec.Expiry()
		if err != nil {
			logger.Warn("drop roster record", zap.Strings("record", rec[:]), zap.Error(err))
			continue
		}
		if now < expiry {
			kept = append(kept, rec)
		}
	}
	return kept
}
