package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"coin-pulse/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	binanceBaseURL    = "https://api.binance.com"
	defaultQuoteAsset = "USDT"
	defaultTopN       = 100
)

var errEmptyTickers = errors.New("empty ticker list")

// BinanceOptions configures a BinanceProvider. Zero values fall back to defaults.
type BinanceOptions struct {
	BaseURL           string
	QuoteAsset        string
	TopN              int
	Timeout           time.Duration
	RetryCount        int
	RequestsPerSecond float64
}

// BinanceProvider reads 24h tickers and klines from the Binance spot REST API.
type BinanceProvider struct {
	client     *resty.Client
	tracer     trace.Tracer
	logger     *logrus.Logger
	limiter    *rate.Limiter
	quoteAsset string
	topN       int
}

func NewBinanceProvider(tracer trace.Tracer, logger *logrus.Logger, opts BinanceOptions) *BinanceProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = binanceBaseURL
	}
	if opts.QuoteAsset == "" {
		opts.QuoteAsset = defaultQuoteAsset
	}
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	burst := int(opts.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &BinanceProvider{
		client:     client,
		tracer:     tracer,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		quoteAsset: strings.ToUpper(opts.QuoteAsset),
		topN:       opts.TopN,
	}
}

// QuoteAsset is the suffix that identifies tracked pairs, e.g. USDT.
func (p *BinanceProvider) QuoteAsset() string {
	return p.quoteAsset
}

// miniTicker is one element of GET /api/v3/ticker/24hr?type=MINI.
type miniTicker struct {
	Symbol      string `json:"symbol"`
	OpenPrice   string `json:"openPrice"`
	HighPrice   string `json:"highPrice"`
	LowPrice    string `json:"lowPrice"`
	LastPrice   string `json:"lastPrice"`
	Volume      string `json:"volume"`
	QuoteVolume string `json:"quoteVolume"`
	OpenTime    int64  `json:"openTime"`
	CloseTime   int64  `json:"closeTime"`
	FirstID     int64  `json:"firstId"`
	LastID      int64  `json:"lastId"`
	Count       int64  `json:"count"`
}

// FetchTopPairs returns the quote-asset pairs with the highest 24h quote volume,
// highest first, capped at TopN.
func (p *BinanceProvider) FetchTopPairs(ctx context.Context) ([]domain.TickerSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-top-pairs")
	defer span.End()

	body, err := p.doRequest(ctx, "/api/v3/ticker/24hr", map[string]string{"type": "MINI"})
	if err != nil {
		return nil, upstreamError("fetch tickers", err)
	}

	var tickers []miniTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, upstreamError("parse tickers", err)
	}
	if len(tickers) == 0 {
		return nil, upstreamError("parse tickers", errEmptyTickers)
	}

	top := p.rank(tickers)
	if len(top) == 0 {
		return nil, upstreamError("rank tickers", fmt.Errorf("no %s pairs with a valid quote volume", p.quoteAsset))
	}
	span.SetAttributes(
		attribute.Int("tickers.total", len(tickers)),
		attribute.Int("tickers.ranked", len(top)),
	)
	return top, nil
}

type rankedTicker struct {
	ticker      miniTicker
	quoteVolume decimal.Decimal
}

func (p *BinanceProvider) rank(tickers []miniTicker) []domain.TickerSnapshot {
	ranked := make([]rankedTicker, 0, len(tickers))
	skipped := 0
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, p.quoteAsset) || t.Symbol == p.quoteAsset {
			continue
		}
		qv, err := decimal.NewFromString(t.QuoteVolume)
		if err != nil {
			skipped++
			continue
		}
		ranked = append(ranked, rankedTicker{ticker: t, quoteVolume: qv})
	}
	if skipped > 0 {
		p.logger.WithField("skipped", skipped).Debug("Skipped tickers with unparsable quote volume")
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].quoteVolume.GreaterThan(ranked[j].quoteVolume)
	})
	if len(ranked) > p.topN {
		ranked = ranked[:p.topN]
	}

	out := make([]domain.TickerSnapshot, 0, len(ranked))
	for _, r := range ranked {
		t := r.ticker
		out = append(out, domain.TickerSnapshot{
			Symbol:      t.Symbol,
			BaseAsset:   strings.TrimSuffix(t.Symbol, p.quoteAsset),
			LastPrice:   t.LastPrice,
			OpenPrice:   t.OpenPrice,
			HighPrice:   t.HighPrice,
			LowPrice:    t.LowPrice,
			Volume:      t.Volume,
			QuoteVolume: t.QuoteVolume,
			OpenTime:    time.UnixMilli(t.OpenTime).UTC(),
			CloseTime:   time.UnixMilli(t.CloseTime).UTC(),
			Count:       t.Count,
		})
	}
	return out
}

// FetchCandles returns the closing prices of the last limit klines for symbol,
// oldest first.
func (p *BinanceProvider) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-candles")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	body, err := p.doRequest(ctx, "/api/v3/klines", map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	})
	if err != nil {
		return nil, upstreamError("fetch klines for "+symbol, err)
	}

	closes, err := parseCloses(body)
	if err != nil {
		return nil, upstreamError("parse klines for "+symbol, err)
	}
	return closes, nil
}

// parseCloses pulls field 4 (close) out of each kline array.
func parseCloses(body []byte) ([]float64, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected array, got %s", root.Type)
	}

	candles := root.Array()
	closes := make([]float64, 0, len(candles))
	for i, candle := range candles {
		field := candle.Get("4")
		if !candle.IsArray() || !field.Exists() {
			return nil, fmt.Errorf("kline %d has no close field", i)
		}
		v, err := strconv.ParseFloat(field.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("kline %d close %q: %w", i, field.String(), err)
		}
		closes = append(closes, v)
	}
	return closes, nil
}

func (p *BinanceProvider) doRequest(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}
	return resp.Body(), nil
}

func upstreamError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
