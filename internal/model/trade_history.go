package model

// Liquidity pool labels for deposit and withdraw entries.
const (
	PoolLabelCall = "Call"
	PoolLabelPut  = "Put"
)

// TradeHistory is an event joined with its option and pool label.
type TradeHistory struct {
	Timestamp         int64   `json:"timestamp"`
	Action            string  `json:"action"`
	Caller            string  `json:"caller"`
	CapitalTransfered string  `json:"capital_transfered"`
	TokensMinted      string  `json:"tokens_minted"`
	Option            *Option `json:"option"`
	LiquidityPool     *string `json:"liquidity_pool"`
}

// AppData is the snapshot handed to the serving layer.
type AppData struct {
	AllNonExpired []string       `json:"all_non_expired"`
	TradeHistory  []TradeHistory `json:"trade_history"`
}
