package domain

import (
	"errors"
	"time"
)

var (
	ErrUpstreamUnavailable = errors.New("market data provider unavailable")
	ErrInsufficientData    = errors.New("not enough data points to calculate RSI")
	ErrNotFound            = errors.New("coin data not available")
	ErrBadSymbol           = errors.New("invalid symbol")
)

// TickerSnapshot is the 24h rolling ticker of one trading pair, as ranked by the
// latest refresh. Values are kept as the exchange's decimal strings.
type TickerSnapshot struct {
	Symbol      string    `json:"symbol"`
	BaseAsset   string    `json:"baseAsset"`
	LastPrice   string    `json:"lastPrice"`
	OpenPrice   string    `json:"openPrice"`
	HighPrice   string    `json:"highPrice"`
	LowPrice    string    `json:"lowPrice"`
	Volume      string    `json:"volume"`
	QuoteVolume string    `json:"quoteVolume"`
	OpenTime    time.Time `json:"openTime"`
	CloseTime   time.Time `json:"closeTime"`
	Count       int64     `json:"count"`
}

// Summary projects the snapshot to the listing shape.
func (t TickerSnapshot) Summary() CoinSummary {
	return CoinSummary{
		Symbol:      t.Symbol,
		BaseAsset:   t.BaseAsset,
		LastPrice:   t.LastPrice,
		Volume:      t.Volume,
		QuoteVolume: t.QuoteVolume,
	}
}

type CoinSummary struct {
	Symbol      string `json:"symbol"`
	BaseAsset   string `json:"baseAsset"`
	LastPrice   string `json:"lastPrice"`
	Volume      string `json:"volume"`
	QuoteVolume string `json:"quoteVolume"`
}

type Prediction string

const (
	PredictionUp      Prediction = "Up"
	PredictionDown    Prediction = "Down"
	PredictionNeutral Prediction = "Neutral"
)

type PredictionResult struct {
	Symbol     string     `json:"symbol"`
	BaseAsset  string     `json:"baseAsset"`
	RSI        float64    `json:"rsi"`
	Prediction Prediction `json:"prediction"`
}
