package starkscan

import (
	"fmt"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

const eventDataWidth = 6

// DecodeEvent maps an API item onto an event. The data of protocol events
// is [caller, token, capital.low, capital.high, minted.low, minted.high].
func DecodeEvent(raw RawEvent) (model.Event, error) {
	if raw.KeyName == "" {
		return model.Event{}, fmt.Errorf("%w: event without key name", chain.ErrMalformedResponse)
	}
	if len(raw.Data) < eventDataWidth {
		return model.Event{}, fmt.Errorf("%w: event data has %d fields", chain.ErrMalformedResponse, len(raw.Data))
	}

	fields := make([]chain.Felt, eventDataWidth)
	for i := range fields {
		f, err := chain.ParseFelt(raw.Data[i])
		if err != nil {
			return model.Event{}, fmt.Errorf("%w: data[%d]: %v", chain.ErrMalformedResponse, i, err)
		}
		fields[i] = f
	}
	from, err := chain.NormalizeHex(raw.FromAddress)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: from address: %v", chain.ErrMalformedResponse, err)
	}

	return model.Event{
		BlockHash:         raw.BlockHash,
		BlockNumber:       raw.BlockNumber,
		TransactionHash:   raw.TransactionHash,
		EventIndex:        raw.EventIndex,
		FromAddress:       from,
		Timestamp:         raw.Timestamp,
		Action:            raw.KeyName,
		Caller:            chain.Hex(&fields[0]),
		TokenAddress:      chain.Hex(&fields[1]),
		CapitalTransfered: chain.Uint256Hex(&fields[2], &fields[3]),
		TokensMinted:      chain.Uint256Hex(&fields[4], &fields[5]),
	}, nil
}
