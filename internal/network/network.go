package network

import (
	"encoding"
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

var ErrUnknownNetwork = errors.New("unknown network (known: mainnet, testnet)")

type Network int

// Needed for cobra and viper to unmarshal network flags and config values.
var (
	_ pflag.Value              = (*Network)(nil)
	_ encoding.TextUnmarshaler = (*Network)(nil)
)

const (
	Mainnet Network = iota + 1
	Testnet
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return "unknown"
	}
}

func (n *Network) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet":
		*n = Mainnet
	case "testnet", "goerli":
		*n = Testnet
	default:
		return ErrUnknownNetwork
	}
	return nil
}

func (n *Network) Type() string {
	return "Network"
}

func (n *Network) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

// Addresses holds the protocol contracts deployed on a network.
type Addresses struct {
	AMM      string
	CallPool string
	PutPool  string
	Oracle   string
}

// DefaultAddresses returns the known deployment for n.
func (n Network) DefaultAddresses() Addresses {
	switch n {
	case Testnet:
		return Addresses{
			AMM:      "0x42a7d485171a01b8c38b6b37e0092f0f096e9d3f945c50c77799171916f5a54",
			CallPool: "0x3b176f8e5b4c9227b660e49e97f2d9d1756f96e5878420ad4accd301dd0cc17",
			PutPool:  "0x30fe5d12635ed696483a824eca301392b3f529e06133b42784750503a24972",
			Oracle:   "0x446812bac98c08190dee8967180f4e3cdcd1db9373ca269904acb17f67f7093",
		}
	default:
		return Addresses{
			AMM:      "0x76dbabc4293db346b0a56b29b6ea9fe18e93742c73f12348c8747ecfc1050aa",
			CallPool: "0x70cad6be2c3fc48c745e4a4b70ef578d9c79b46ffac4cd93ec7b61f951c7c5c",
			PutPool:  "0x466e3a6731571cf5d74c5b0d9c508bfb71438de10f9a13269177b01d6f07159",
			Oracle:   "0x346c57f094d641ad94e43468628d8e9c574dcb2803ec372576ccc60a40be2c4",
		}
	}
}

// WithOverrides replaces the non-empty fields of a.
func (a Addresses) WithOverrides(o Addresses) Addresses {
	if o.AMM != "" {
		a.AMM = o.AMM
	}
	if o.CallPool != "" {
		a.CallPool = o.CallPool
	}
	if o.PutPool != "" {
		a.PutPool = o.PutPool
	}
	if o.Oracle != "" {
		a.Oracle = o.Oracle
	}
	return a
}
