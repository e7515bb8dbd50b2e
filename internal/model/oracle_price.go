package model

// OraclePrice is a spot median price observed at a block.
type OraclePrice struct {
	Pair        string `json:"pair"`
	Source      string `json:"source"`
	Price       string `json:"price"`
	Decimals    uint32 `json:"decimals"`
	LastUpdated int64  `json:"last_updated_timestamp"`
	NumSources  uint32 `json:"num_sources_aggregated"`
	BlockNumber uint64 `json:"block_number"`
}
