package model

// Event is a protocol action as reported by the external event indexer.
type Event struct {
	BlockHash         string `json:"block_hash"`
	BlockNumber       uint64 `json:"block_number"`
	TransactionHash   string `json:"transaction_hash"`
	EventIndex        uint64 `json:"event_index"`
	FromAddress       string `json:"from_address"`
	Timestamp         int64  `json:"timestamp"`
	Action            string `json:"action"`
	Caller            string `json:"caller"`
	TokenAddress      string `json:"token_address"`
	CapitalTransfered string `json:"capital_transfered"`
	TokensMinted      string `json:"tokens_minted"`
}

// ID identifies an event across pulls.
func (e Event) ID() string {
	return EventID(e.TransactionHash, e.EventIndex)
}

// EventID builds the identity key for an event.
func EventID(txHash string, index uint64) string {
	return txHash + ":" + uintText(index)
}

// Trade and liquidity actions kept in trade history.
const (
	ActionTradeOpen         = "TradeOpen"
	ActionTradeClose        = "TradeClose"
	ActionTradeSettle       = "TradeSettle"
	ActionDepositLiquidity  = "DepositLiquidity"
	ActionWithdrawLiquidity = "WithdrawLiquidity"
)

// IsTradeAction reports whether action belongs to the trade history allow-list.
// Maintenance actions such as ExpireOptionTokenForPool or Upgrade are excluded.
func IsTradeAction(action string) bool {
	switch action {
	case ActionTradeOpen, ActionTradeClose, ActionTradeSettle, ActionDepositLiquidity, ActionWithdrawLiquidity:
		return true
	default:
		return false
	}
}

// IsLiquidityAction reports whether action moves capital in or out of a pool.
func IsLiquidityAction(action string) bool {
	return action == ActionDepositLiquidity || action == ActionWithdrawLiquidity
}
