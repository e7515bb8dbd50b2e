package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newNode serves JSON-RPC requests with handle, which returns either a
// result or an error code.
func newNode(t *testing.T, handle func(req rpcRequest) (any, int)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, code := handle(req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if code != 0 {
			resp["error"] = map[string]any{"code": code, "message": "node error"}
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestClientCall(t *testing.T) {
	var seen rpcRequest
	client := newNode(t, func(req rpcRequest) (any, int) {
		seen = req
		return []string{"0x2", "0xa", "0xb"}, 0
	})

	values, err := client.Call(context.Background(), FunctionCall{
		ContractAddress: MustFelt("0x123"),
		Entrypoint:      "get_all_options",
		Calldata:        []Felt{MustFelt("0x456")},
	}, AtBlock(7))
	require.NoError(t, err)
	assert.Equal(t, felts(2, 10, 11), values)

	assert.Equal(t, "starknet_call", seen.Method)
	require.Len(t, seen.Params, 2)

	var req callRequest
	require.NoError(t, json.Unmarshal(seen.Params[0], &req))
	sel := Selector("get_all_options")
	assert.Equal(t, "0x123", req.ContractAddress)
	assert.Equal(t, Hex(&sel), req.EntryPointSelector)
	assert.Equal(t, []string{"0x456"}, req.Calldata)
	assert.JSONEq(t, `{"block_number":7}`, string(seen.Params[1]))
}

func TestClientCallError(t *testing.T) {
	client := newNode(t, func(rpcRequest) (any, int) {
		return nil, codeBlockNotFound
	})

	_, err := client.Call(context.Background(), FunctionCall{Entrypoint: "get_lpool_balance"}, AtBlock(1))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, ErrNotFound)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "get_lpool_balance", callErr.Entrypoint)
}

func TestClientBlockHeader(t *testing.T) {
	client := newNode(t, func(req rpcRequest) (any, int) {
		switch req.Method {
		case "starknet_getBlockWithTxHashes":
			return map[string]any{"block_number": 42, "timestamp": 1700000000, "block_hash": "0x1"}, 0
		case "starknet_blockNumber":
			return 99, 0
		}
		return nil, -32601
	})

	block, err := client.BlockHeader(context.Background(), LatestBlock)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), block.Number)
	assert.Equal(t, int64(1700000000), block.Timestamp)

	head, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(99), head)
}

func TestBlockIDJSON(t *testing.T) {
	b, err := json.Marshal(LatestBlock)
	require.NoError(t, err)
	assert.Equal(t, `"latest"`, string(b))
	assert.Equal(t, "#5", AtBlock(5).String())
}
