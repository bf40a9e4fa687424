package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

const defaultEndpoint = "https://data.fixer.io/api/latest"

// Client fetches rates from fixer.io. The free tier always returns EUR-based
// rates, so the payload is rebased to the requested base currency via
// cross-rates before being returned.
type Client struct {
	client    *http.Client
	endpoint  string
	accessKey string
}

func New(accessKey string, opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoint:  defaultEndpoint,
		accessKey: accessKey,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type Option func(*Client)

func WithClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithEndpoint(ep string) Option {
	return func(c *Client) { c.endpoint = ep }
}

func (c *Client) Name() string { return "fixer" }

type latestResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) FetchLatest(ctx context.Context, baseCurrency string) (snapshot.RateMap, error) {
	u := fmt.Sprintf("%s?access_key=%s", c.endpoint, url.QueryEscape(c.accessKey))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixer returned HTTP %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var lr latestResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parse latest response: %w", err)
	}

	if !lr.Success {
		if lr.Error != nil {
			return nil, fmt.Errorf("fixer error (code=%d): %s", lr.Error.Code, lr.Error.Info)
		}
		return nil, fmt.Errorf("fixer reported failure")
	}

	pivot, ok := lr.Rates[baseCurrency]
	if !ok || pivot == 0 {
		return nil, fmt.Errorf("fixer did not return a usable rate for %s", baseCurrency)
	}

	rates := make(snapshot.RateMap, len(lr.Rates)+1)
	for code, v := range lr.Rates {
		rates[code] = v / pivot
	}
	rates[baseCurrency] = 1

	slog.Info("fetched rates from fixer", "base", baseCurrency, "count", len(rates))
	return rates, nil
}
