package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"optionScope/internal/network"
)

const envPrefix = "OPTIONSCOPE"

// Common holds settings shared by every command.
type Common struct {
	Network     network.Network
	RPCURL      string
	PGDSN       string
	DryRun      bool
	LogLevel    string
	MetricsAddr string
	Addresses   network.Addresses
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "mainnet")
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) (Common, error) {
	var n network.Network
	if err := n.Set(v.GetString("network")); err != nil {
		return Common{}, fmt.Errorf("network %q: %w", v.GetString("network"), err)
	}

	cfg := Common{
		Network:     n,
		RPCURL:      v.GetString("rpc"),
		PGDSN:       v.GetString("pg-dsn"),
		DryRun:      v.GetBool("dry-run"),
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: v.GetString("metrics-addr"),
		Addresses: n.DefaultAddresses().WithOverrides(network.Addresses{
			AMM:      v.GetString("amm-address"),
			CallPool: v.GetString("call-pool"),
			PutPool:  v.GetString("put-pool"),
			Oracle:   v.GetString("oracle-address"),
		}),
	}
	if cfg.PGDSN == "" && !cfg.DryRun {
		return Common{}, fmt.Errorf("pg-dsn is required unless dry-run is set")
	}
	return cfg, nil
}

func requireRPC(c Common) error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	return nil
}

func nonNegative(name string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
