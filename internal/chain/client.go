package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"

	"optionScope/internal/model"
)

const (
	codeContractNotFound = 20
	codeBlockNotFound    = 24
)

// BlockID selects a block: the latest one or a fixed height.
type BlockID struct {
	Latest bool
	Number uint64
}

// LatestBlock selects the chain head.
var LatestBlock = BlockID{Latest: true}

// AtBlock selects a historical block.
func AtBlock(number uint64) BlockID {
	return BlockID{Number: number}
}

func (b BlockID) String() string {
	if b.Latest {
		return "latest"
	}
	return "#" + strconv.FormatUint(b.Number, 10)
}

// MarshalJSON encodes the block id in the JSON-RPC form.
func (b BlockID) MarshalJSON() ([]byte, error) {
	if b.Latest {
		return json.Marshal("latest")
	}
	return json.Marshal(struct {
		BlockNumber uint64 `json:"block_number"`
	}{b.Number})
}

// FunctionCall is a read-only contract invocation.
type FunctionCall struct {
	ContractAddress Felt
	Entrypoint      string
	Calldata        []Felt
}

type callRequest struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

type blockHeader struct {
	BlockHash   string `json:"block_hash"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
}

// Client wraps a StarkNet JSON-RPC endpoint.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Call invokes a view entrypoint at the given block and returns the raw result.
func (c *Client) Call(ctx context.Context, call FunctionCall, block BlockID) ([]Felt, error) {
	sel := Selector(call.Entrypoint)
	req := callRequest{
		ContractAddress:    Hex(&call.ContractAddress),
		EntryPointSelector: Hex(&sel),
		Calldata:           make([]string, 0, len(call.Calldata)),
	}
	for i := range call.Calldata {
		req.Calldata = append(req.Calldata, Hex(&call.Calldata[i]))
	}

	var raw []string
	if err := c.rpcClient.CallContext(ctx, &raw, "starknet_call", req, block); err != nil {
		return nil, newCallError("starknet_call", call.Entrypoint, block, err)
	}

	values := make([]Felt, 0, len(raw))
	for _, item := range raw {
		f, err := ParseFelt(item)
		if err != nil {
			return nil, &CallError{Method: "starknet_call", Entrypoint: call.Entrypoint, Block: block, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
		}
		values = append(values, f)
	}
	return values, nil
}

// BlockHeader returns the number and timestamp of a block.
func (c *Client) BlockHeader(ctx context.Context, block BlockID) (model.Block, error) {
	var header blockHeader
	if err := c.rpcClient.CallContext(ctx, &header, "starknet_getBlockWithTxHashes", block); err != nil {
		return model.Block{}, newCallError("starknet_getBlockWithTxHashes", "", block, err)
	}
	return model.Block{Number: header.BlockNumber, Timestamp: header.Timestamp}, nil
}

// BlockNumber returns the latest accepted block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	if err := c.rpcClient.CallContext(ctx, &number, "starknet_blockNumber"); err != nil {
		return 0, newCallError("starknet_blockNumber", "", LatestBlock, err)
	}
	return number, nil
}

func newCallError(method, entrypoint string, block BlockID, err error) *CallError {
	callErr := &CallError{Method: method, Entrypoint: entrypoint, Block: block, Err: err}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		callErr.Code = rpcErr.ErrorCode()
	}
	return callErr
}
