package openexchange

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

const defaultEndpoint = "https://openexchangerates.org/api/latest.json"

type Client struct {
	client   *http.Client
	endpoint string
	appID    string
}

func New(appID string, opts ...Option) *Client {
	c := &Client{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: defaultEndpoint,
		appID:    appID,
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

func (c *Client) Name() string { return "openexchange" }

// latestResponse is the minimal latest.json response structure. Error
// payloads arrive with a 4xx status and {"error": true, ...}.
type latestResponse struct {
	Error       bool               `json:"error"`
	Message     string             `json:"message"`
	Description string             `json:"description"`
	Base        string             `json:"base"`
	Rates       map[string]float64 `json:"rates"`
}

func (c *Client) FetchLatest(ctx context.Context, baseCurrency string) (snapshot.RateMap, error) {
	u := fmt.Sprintf("%s?app_id=%s&base=%s", c.endpoint, url.QueryEscape(c.appID), url.QueryEscape(baseCurrency))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var lr latestResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("parse latest response: %w", err)
	}

	if lr.Error {
		return nil, fmt.Errorf("openexchange error: %s: %s", lr.Message, lr.Description)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openexchange returned HTTP %d", res.StatusCode)
	}
	if len(lr.Rates) == 0 {
		return nil, fmt.Errorf("openexchange returned no rates for %s", baseCurrency)
	}

	rates := make(snapshot.RateMap, len(lr.Rates)+1)
	for code, v := range lr.Rates {
		rates[code] = v
	}
	rates[baseCurrency] = 1

	slog.Info("fetched rates from openexchange", "base", baseCurrency, "count", len(rates))
	return rates, nil
}
