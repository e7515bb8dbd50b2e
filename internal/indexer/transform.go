package indexer

import (
	"optionScope/internal/model"
	"optionScope/internal/storage"
)

func buildBlockCommit(block model.Block, states []model.PoolState, vols []model.OptionVolatility, price model.OraclePrice) storage.BlockCommit {
	if price.BlockNumber == 0 {
		price.BlockNumber = block.Number
	}
	return storage.BlockCommit{
		Block:        block,
		PoolStates:   states,
		Volatilities: vols,
		Price:        price,
	}
}
