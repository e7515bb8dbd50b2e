package model

import "strconv"

// Block is the durable sync watermark.
type Block struct {
	Number    uint64 `json:"block_number"`
	Timestamp int64  `json:"timestamp"`
}

// PoolState is the capital snapshot of one pool at one block.
type PoolState struct {
	PoolAddress  string `json:"lp_address"`
	LockedCap    string `json:"locked_cap"`
	UnlockedCap  string `json:"unlocked_cap"`
	LPBalance    string `json:"lp_balance"`
	PoolPosition string `json:"pool_position"`
	LPTokenValue string `json:"lp_token_value"`
	BlockNumber  uint64 `json:"block_number"`
}

// OptionVolatility is the pool volatility of one option at one block.
type OptionVolatility struct {
	OptionAddress string `json:"option_address"`
	Volatility    string `json:"volatility"`
	BlockNumber   uint64 `json:"block_number"`
}

// ZeroFelt is the hex encoding used for zero valued felts.
const ZeroFelt = "0x0"

func uintText(v uint64) string {
	return strconv.FormatUint(v, 10)
}
