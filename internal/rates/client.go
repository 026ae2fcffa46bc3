// Package rates fetches reference interest rates published by the central
// bank. The key rate feeds the inflation simulator as an informational input.
package rates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"cashcast/internal/cache"
	"cashcast/internal/core"
	"cashcast/internal/log"
)

const keyRateCacheKey = "key_rate"

// lookback is how far back the key rate history is requested; the rate
// changes at most a few times a year.
const lookback = 30 * 24 * time.Hour

var ErrNoRate = errors.New("no key rate data in response")

// KeyRate is the latest published key rate in percent.
type KeyRate struct {
	Rate      float64   `json:"keyRate"`
	Date      core.Date `json:"date"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Client retrieves the key rate over the DailyInfo SOAP service and caches
// it for the configured TTL.
type Client struct {
	url    string
	http   *http.Client
	cache  *cache.LRUCache[KeyRate]
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentRates) }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
		c.cache.SetClock(now)
	}
}

func NewClient(url string, ttl time.Duration, opts ...Option) *Client {
	c := &Client{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  cache.NewLRUCache[KeyRate](1, ttl),
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (c *Client) Cache() cache.Cleaner {
	return c.cache
}

// KeyRate returns the cached rate or fetches a fresh one.
func (c *Client) KeyRate(ctx context.Context) (KeyRate, error) {
	if kr, ok := c.cache.Get(keyRateCacheKey); ok {
		return kr, nil
	}

	body, err := c.send(ctx, c.buildRequest())
	if err != nil {
		return KeyRate{}, err
	}
	kr, err := parseKeyRate(body)
	if err != nil {
		return KeyRate{}, err
	}
	kr.FetchedAt = c.now().UTC()

	c.cache.Set(keyRateCacheKey, kr)
	c.logger.InfoContext(ctx, "Key rate refreshed", "rate", kr.Rate, "date", kr.Date.String())
	return kr, nil
}

func (c *Client) buildRequest() string {
	now := c.now()
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <KeyRate xmlns="http://web.cbr.ru/">
      <fromDate>%s</fromDate>
      <ToDate>%s</ToDate>
    </KeyRate>
  </soap12:Body>
</soap12:Envelope>`, now.Add(-lookback).Format("2006-01-02"), now.Format("2006-01-02"))
}

func (c *Client) send(ctx context.Context, payload string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(payload))
	if err != nil {
		return nil, fmt.Errorf("create key rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("key rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key rate request: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read key rate response: %w", err)
	}
	c.logger.DebugContext(ctx, "Key rate response received", "bytes", len(body))
	return body, nil
}

// parseKeyRate picks the most recent KR row of the diffgram.
func parseKeyRate(raw []byte) (KeyRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return KeyRate{}, fmt.Errorf("parse key rate XML: %w", err)
	}

	rows := doc.FindElements("//diffgram/KeyRate/KR")
	if len(rows) == 0 {
		return KeyRate{}, ErrNoRate
	}

	var (
		latest KeyRate
		found  bool
	)
	for _, row := range rows {
		rateEl := row.FindElement("./Rate")
		dtEl := row.FindElement("./DT")
		if rateEl == nil || dtEl == nil {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rateEl.Text()))
		if err != nil {
			return KeyRate{}, fmt.Errorf("parse rate %q: %w", rateEl.Text(), err)
		}
		dt, err := time.Parse(time.RFC3339, strings.TrimSpace(dtEl.Text()))
		if err != nil {
			return KeyRate{}, fmt.Errorf("parse rate date %q: %w", dtEl.Text(), err)
		}
		date := core.NewDate(dt.Year(), int(dt.Month()), dt.Day())
		if !found || date.After(latest.Date.Time) {
			latest = KeyRate{Rate: rate.InexactFloat64(), Date: date}
			found = true
		}
	}
	if !found {
		return KeyRate{}, ErrNoRate
	}
	return latest, nil
}
