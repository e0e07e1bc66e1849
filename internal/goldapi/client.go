// Package goldapi fetches the XAU spot price in THB from goldapi.io.
package goldapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the goldapi.io REST endpoint root.
const DefaultBaseURL = "https://www.goldapi.io/api"

// Client calls the goldapi.io spot-price API.
type Client struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

type spotResponse struct {
	Price float64 `json:"price"`
}

// NewClient creates a goldapi client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New()
	client.SetTimeout(timeout)

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

// FetchPrice returns the current spot gold price per troy ounce in THB.
func (c *Client) FetchPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/XAU/THB", c.baseURL)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-access-token", c.apiKey).
		SetHeader("Cache-Control", "no-cache").
		Get(url)
	if err != nil {
		return 0, fmt.Errorf("fetch spot price: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("spot API returned status %d", resp.StatusCode())
	}

	var out spotResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return 0, fmt.Errorf("decode spot response: %w", err)
	}
	if out.Price <= 0 {
		return 0, fmt.Errorf("spot response has no positive price")
	}
	return out.Price, nil
}
