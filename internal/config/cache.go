package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Protocol is a named contract tracked on the external event indexer.
type Protocol struct {
	Name    string
	Address string
}

// EventsConfig holds configuration for pulling events from Starkscan.
type EventsConfig struct {
	Common
	StarkscanURL    string
	StarkscanAPIKey string
	Protocols       []Protocol
	ProtocolDelay   time.Duration
	MaxPages        int
	CursorState     string
}

// DiscoverConfig holds configuration for option roster discovery.
type DiscoverConfig struct {
	Common
	DiscoverDelay time.Duration
	Pools         []string
	Options       []string
}

// CacheConfig holds configuration for the merge cache service.
type CacheConfig struct {
	EventsConfig
	DiscoverDelay    time.Duration
	Schedule         string
	DiscoverSchedule string
	RedisURL         string
	SnapshotTTL      time.Duration
	Out              string
}

var eventDefaults = map[string]any{
	"protocol-delay": 2 * time.Second,
	"max-pages":      0,
	"events-state":   "./data/starkscan-cursors.json",
}

// LoadEvents merges config file, environment variables, and flags into EventsConfig.
func LoadEvents(cfgFile string, flags *pflag.FlagSet) (EventsConfig, error) {
	v, err := newViper(cfgFile, flags, eventDefaults)
	if err != nil {
		return EventsConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return EventsConfig{}, err
	}
	return loadEvents(common, v.GetString("starkscan-url"), v.GetString("starkscan-api-key"),
		getStringSlice(v, "protocol"), v.GetDuration("protocol-delay"), v.GetInt("max-pages"), v.GetString("events-state"))
}

func loadEvents(common Common, url, apiKey string, protocols []string, delay time.Duration, maxPages int, cursorState string) (EventsConfig, error) {
	cfg := EventsConfig{
		Common:          common,
		StarkscanURL:    url,
		StarkscanAPIKey: apiKey,
		ProtocolDelay:   delay,
		MaxPages:        maxPages,
		CursorState:     cursorState,
	}
	parsed, err := ParseProtocols(protocols)
	if err != nil {
		return EventsConfig{}, err
	}
	if len(parsed) == 0 {
		parsed = []Protocol{{Name: "carmine-options", Address: common.Addresses.AMM}}
	}
	cfg.Protocols = parsed
	if err := nonNegative("protocol-delay", cfg.ProtocolDelay); err != nil {
		return EventsConfig{}, err
	}
	return cfg, nil
}

// LoadDiscover merges config file, environment variables, and flags into DiscoverConfig.
func LoadDiscover(cfgFile string, flags *pflag.FlagSet) (DiscoverConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"discover-delay": 2 * time.Second,
	})
	if err != nil {
		return DiscoverConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return DiscoverConfig{}, err
	}
	if err := requireRPC(common); err != nil {
		return DiscoverConfig{}, err
	}

	cfg := DiscoverConfig{
		Common:        common,
		DiscoverDelay: v.GetDuration("discover-delay"),
		Pools:         getStringSlice(v, "pool"),
		Options:       getStringSlice(v, "option"),
	}
	if err := nonNegative("discover-delay", cfg.DiscoverDelay); err != nil {
		return DiscoverConfig{}, err
	}
	return cfg, nil
}

// LoadCache merges config file, environment variables, and flags into CacheConfig.
func LoadCache(cfgFile string, flags *pflag.FlagSet) (CacheConfig, error) {
	defaults := map[string]any{
		"discover-delay":    2 * time.Second,
		"schedule":          "0 */5 * * * *",
		"discover-schedule": "0 0 * * * *",
		"snapshot-ttl":      time.Duration(0),
	}
	for k, val := range eventDefaults {
		defaults[k] = val
	}
	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return CacheConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return CacheConfig{}, err
	}
	if err := requireRPC(common); err != nil {
		return CacheConfig{}, err
	}
	events, err := loadEvents(common, v.GetString("starkscan-url"), v.GetString("starkscan-api-key"),
		getStringSlice(v, "protocol"), v.GetDuration("protocol-delay"), v.GetInt("max-pages"), v.GetString("events-state"))
	if err != nil {
		return CacheConfig{}, err
	}

	cfg := CacheConfig{
		EventsConfig:     events,
		DiscoverDelay:    v.GetDuration("discover-delay"),
		Schedule:         v.GetString("schedule"),
		DiscoverSchedule: v.GetString("discover-schedule"),
		RedisURL:         v.GetString("redis-url"),
		SnapshotTTL:      v.GetDuration("snapshot-ttl"),
		Out:              v.GetString("out"),
	}
	if cfg.Schedule == "" {
		return CacheConfig{}, fmt.Errorf("schedule is required")
	}
	if err := nonNegative("discover-delay", cfg.DiscoverDelay); err != nil {
		return CacheConfig{}, err
	}
	return cfg, nil
}

// ParseProtocols parses name=address pairs.
func ParseProtocols(items []string) ([]Protocol, error) {
	out := make([]Protocol, 0, len(items))
	for _, item := range items {
		name, address, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		address = strings.TrimSpace(address)
		if !ok || name == "" || address == "" {
			return nil, fmt.Errorf("invalid protocol %q (want name=address)", item)
		}
		out = append(out, Protocol{Name: name, Address: address})
	}
	return out, nil
}
