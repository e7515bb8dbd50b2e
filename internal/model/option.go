package model

// Option describes a tradable option instrument.
type Option struct {
	Address     string `json:"option_address"`
	Side        int16  `json:"option_side"`
	Type        int16  `json:"option_type"`
	Maturity    int64  `json:"maturity"`
	StrikePrice string `json:"strike_price"`
	QuoteToken  string `json:"quote_token_address"`
	BaseToken   string `json:"base_token_address"`
	PoolAddress string `json:"lp_address"`
}

// ExpiredAt reports whether the option matured at or before ts.
func (o Option) ExpiredAt(ts int64) bool {
	return o.Maturity <= ts
}

// Pool is a liquidity pool tracked on a network.
type Pool struct {
	Address string `json:"lp_address"`
}
