package cache

import (
	"sort"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

// BuildTradeHistory joins trade and liquidity events with their option and
// pool label, ordered by timestamp. Events outside the allow-list are left
// out. An option missing from options leaves the entry without one.
func BuildTradeHistory(events []model.Event, options map[string]model.Option, callPool, putPool string) []model.TradeHistory {
	callPool = canonical(callPool)
	putPool = canonical(putPool)

	out := make([]model.TradeHistory, 0, len(events))
	for _, ev := range events {
		if !model.IsTradeAction(ev.Action) {
			continue
		}
		token := canonical(ev.TokenAddress)

		entry := model.TradeHistory{
			Timestamp:         ev.Timestamp,
			Action:            ev.Action,
			Caller:            ev.Caller,
			CapitalTransfered: ev.CapitalTransfered,
			TokensMinted:      ev.TokensMinted,
		}
		if opt, ok := options[token]; ok {
			entry.Option = &opt
		}
		if model.IsLiquidityAction(ev.Action) {
			switch token {
			case putPool:
				entry.LiquidityPool = label(model.PoolLabelPut)
			case callPool:
				entry.LiquidityPool = label(model.PoolLabelCall)
			}
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func label(s string) *string {
	return &s
}

// canonical normalizes hex addresses so that zero padding does not matter.
func canonical(address string) string {
	if hex, err := chain.NormalizeHex(address); err == nil {
		return hex
	}
	return address
}

func cloneTradeHistory(in []model.TradeHistory) []model.TradeHistory {
	if in == nil {
		return nil
	}
	out := make([]model.TradeHistory, len(in))
	for i, th := range in {
		if th.Option != nil {
			opt := *th.Option
			th.Option = &opt
		}
		if th.LiquidityPool != nil {
			th.LiquidityPool = label(*th.LiquidityPool)
		}
		out[i] = th
	}
	return out
}
