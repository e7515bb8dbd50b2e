package config

import (
	"time"

	"github.com/spf13/pflag"
)

// SyncConfig holds configuration for the block syncer and gap filler.
type SyncConfig struct {
	Common
	FromBlock    uint64
	Step         uint64
	RetryBackoff time.Duration
	Interval     time.Duration
	Once         bool
	Blocks       []string
	GapState     string
	OraclePair   string
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"step":          uint64(1),
		"retry-backoff": 10 * time.Second,
		"interval":      time.Minute,
		"gap-state":     "./data/gaps.json",
		"oracle-pair":   "ETH/USD",
	})
	if err != nil {
		return SyncConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return SyncConfig{}, err
	}
	if err := requireRPC(common); err != nil {
		return SyncConfig{}, err
	}

	cfg := SyncConfig{
		Common:       common,
		FromBlock:    v.GetUint64("from"),
		Step:         v.GetUint64("step"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Interval:     v.GetDuration("interval"),
		Once:         v.GetBool("once"),
		Blocks:       getStringSlice(v, "blocks"),
		GapState:     v.GetString("gap-state"),
		OraclePair:   v.GetString("oracle-pair"),
	}
	if err := nonNegative("retry-backoff", cfg.RetryBackoff); err != nil {
		return SyncConfig{}, err
	}
	if err := nonNegative("interval", cfg.Interval); err != nil {
		return SyncConfig{}, err
	}
	return cfg, nil
}
