package starkscan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPaging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "/events", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			assert.Equal(t, "0xabc", r.URL.Query().Get("from_address"))
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, "desc", r.URL.Query().Get("order_by"))
			_ = json.NewEncoder(w).Encode(Page{
				NextURL: srv.URL + "/events?cursor=2",
				Data:    []RawEvent{{TransactionHash: "0x1", KeyName: "TradeOpen"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(Page{Data: []RawEvent{{TransactionHash: "0x2", KeyName: "TradeClose"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	first, err := c.FirstPage(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, first.Data, 1)
	assert.Equal(t, "0x1", first.Data[0].TransactionHash)

	next, err := c.NextPage(context.Background(), first.NextURL)
	require.NoError(t, err)
	require.Len(t, next.Data, 1)
	assert.Equal(t, "TradeClose", next.Data[0].KeyName)
	assert.Empty(t, next.NextURL)
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").FirstPage(context.Background(), "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestBaseURL(t *testing.T) {
	assert.NotEqual(t, BaseURL(1), BaseURL(2))
}
