package starkscan

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"optionScope/internal/network"
)

const (
	defaultPageSize = 100
	defaultTimeout  = 30 * time.Second
)

// BaseURL returns the public API root for n.
func BaseURL(n network.Network) string {
	if n == network.Testnet {
		return "https://api-testnet.starkscan.co/api/v0"
	}
	return "https://api.starkscan.co/api/v0"
}

// RawEvent is one event item as served by the API.
type RawEvent struct {
	BlockHash       string   `json:"block_hash"`
	BlockNumber     uint64   `json:"block_number"`
	TransactionHash string   `json:"transaction_hash"`
	EventIndex      uint64   `json:"event_index"`
	FromAddress     string   `json:"from_address"`
	Keys            []string `json:"keys"`
	Data            []string `json:"data"`
	Timestamp       int64    `json:"timestamp"`
	KeyName         string   `json:"key_name"`
}

// Page is one page of events, newest first.
type Page struct {
	NextURL string     `json:"next_url"`
	Data    []RawEvent `json:"data"`
}

// Client talks to the Starkscan REST API.
type Client struct {
	http     *resty.Client
	pageSize int
}

// NewClient builds a client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		httpClient.SetHeader("x-api-key", apiKey)
	}
	return &Client{http: httpClient, pageSize: defaultPageSize}
}

// FirstPage returns the newest events emitted by contract.
func (c *Client) FirstPage(ctx context.Context, contract string) (Page, error) {
	return c.get(ctx, "/events", map[string]string{
		"from_address": contract,
		"limit":        strconv.Itoa(c.pageSize),
		"order_by":     "desc",
	})
}

// NextPage follows the next_url of a previous page.
func (c *Client) NextPage(ctx context.Context, nextURL string) (Page, error) {
	return c.get(ctx, nextURL, nil)
}

func (c *Client) get(ctx context.Context, url string, query map[string]string) (Page, error) {
	var page Page
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&page).
		Get(url)
	if err != nil {
		return Page{}, fmt.Errorf("get events: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Page{}, fmt.Errorf("get events: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
