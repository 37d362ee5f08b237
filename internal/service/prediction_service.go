package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"coin-pulse/internal/domain"
	"coin-pulse/internal/ta"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	oversoldLevel   = 30.0
	overboughtLevel = 70.0

	// extra candles beyond the RSI period so the smoothing settles
	warmupCandles = 50

	defaultClosesTTL = 60 * time.Second
)

type CoinReader interface {
	Get(baseAsset string) (domain.TickerSnapshot, bool)
	All() []domain.TickerSnapshot
	Size() int
}

type CandleFetcher interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]float64, error)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type PredictionOptions struct {
	QuoteAsset string
	Period     int
	Interval   string
	ClosesTTL  time.Duration
}

// PredictionService answers RSI prediction and coin listing queries from the
// coin cache. Every outcome, including failures, is returned as a Result.
type PredictionService struct {
	tracer    trace.Tracer
	logger    *logrus.Logger
	coins     CoinReader
	candles   CandleFetcher
	refresher Refresher
	redis     RedisClient

	quoteAsset string
	period     int
	interval   string
	closesTTL  time.Duration
}

func NewPredictionService(
	tracer trace.Tracer,
	logger *logrus.Logger,
	coins CoinReader,
	candles CandleFetcher,
	refresher Refresher,
	redisClient RedisClient,
	opts PredictionOptions,
) *PredictionService {
	if opts.QuoteAsset == "" {
		opts.QuoteAsset = "USDT"
	}
	if opts.Period <= 0 {
		opts.Period = ta.DefaultRSIPeriod
	}
	if opts.Interval == "" {
		opts.Interval = "1h"
	}
	if opts.ClosesTTL <= 0 {
		opts.ClosesTTL = defaultClosesTTL
	}
	return &PredictionService{
		tracer:     tracer,
		logger:     logger,
		coins:      coins,
		candles:    candles,
		refresher:  refresher,
		redis:      redisClient,
		quoteAsset: strings.ToUpper(opts.QuoteAsset),
		period:     opts.Period,
		interval:   opts.Interval,
		closesTTL:  opts.ClosesTTL,
	}
}

// Classify maps an RSI value to the expected reversal: oversold coins are
// expected to go up, overbought ones down. Both bounds are inclusive.
func Classify(rsi float64) domain.Prediction {
	switch {
	case rsi <= oversoldLevel:
		return domain.PredictionUp
	case rsi >= overboughtLevel:
		return domain.PredictionDown
	default:
		return domain.PredictionNeutral
	}
}

// NormalizeSymbol turns user input such as "btc" or "BTCUSDT" into the base
// asset "BTC".
func NormalizeSymbol(raw, quoteAsset string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", domain.ErrBadSymbol)
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("%w: %q", domain.ErrBadSymbol, raw)
		}
	}
	if base, ok := strings.CutSuffix(symbol, strings.ToUpper(quoteAsset)); ok {
		if base == "" {
			return "", fmt.Errorf("%w: %q is the quote asset", domain.ErrBadSymbol, raw)
		}
		symbol = base
	}
	return symbol, nil
}

func (s *PredictionService) QuoteAsset() string {
	return s.quoteAsset
}

// GetPrediction computes the RSI of the coin's recent candles and classifies it.
func (s *PredictionService) GetPrediction(ctx context.Context, rawSymbol string) (result domain.Result[domain.PredictionResult]) {
	ctx, span := s.tracer.Start(ctx, "prediction-service.get-prediction")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("symbol", rawSymbol).Errorf("prediction panicked: %v", r)
			result = domain.ServerError[domain.PredictionResult]("")
		}
	}()

	base, err := NormalizeSymbol(rawSymbol, s.quoteAsset)
	if err != nil {
		return domain.BadRequest[domain.PredictionResult](err.Error())
	}
	span.SetAttributes(attribute.String("base_asset", base))

	coin, ok := s.coins.Get(base)
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrNotFound, base)
		span.RecordError(err)
		s.logger.WithError(err).Debug("Prediction requested for untracked coin")
		return domain.NotFound[domain.PredictionResult](fmt.Sprintf("Coin data not available for %s", base))
	}

	limit := s.period + warmupCandles
	closes, err := s.closes(ctx, coin.Symbol, limit)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", coin.Symbol).Error("Failed to fetch candles")
		return s.failure(coin.Symbol, err)
	}

	rsi, err := ta.ComputeRSI(closes, s.period)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", coin.Symbol).Warn("Failed to calculate RSI")
		return s.failure(coin.Symbol, err)
	}

	prediction := Classify(rsi)
	span.SetAttributes(
		attribute.Float64("rsi", rsi),
		attribute.String("prediction", string(prediction)),
	)

	return domain.Success(domain.PredictionResult{
		Symbol:     coin.Symbol,
		BaseAsset:  coin.BaseAsset,
		RSI:        rsi,
		Prediction: prediction,
	}, "")
}

func (s *PredictionService) failure(symbol string, err error) domain.Result[domain.PredictionResult] {
	switch {
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, ta.ErrInvalidPrice),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return domain.Failed[domain.PredictionResult](fmt.Sprintf("Failed to calculate RSI for %s: %v", symbol, err))
	default:
		return domain.ServerError[domain.PredictionResult]("")
	}
}

// GetAllCoins lists every cached coin, highest quote volume first. An empty
// cache triggers one refresh before giving up.
func (s *PredictionService) GetAllCoins(ctx context.Context) domain.Result[[]domain.CoinSummary] {
	ctx, span := s.tracer.Start(ctx, "prediction-service.get-all-coins")
	defer span.End()

	if s.coins.Size() == 0 && s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.WithError(err).Warn("On-demand refresh failed")
		}
	}

	snapshots := s.coins.All()
	if len(snapshots) == 0 {
		return domain.Failed[[]domain.CoinSummary]("No coin data available yet")
	}

	sortByQuoteVolume(snapshots)
	out := make([]domain.CoinSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, snap.Summary())
	}
	span.SetAttributes(attribute.Int("coins", len(out)))
	return domain.Success(out, "")
}

func sortByQuoteVolume(snapshots []domain.TickerSnapshot) {
	volumes := make(map[string]decimal.Decimal, len(snapshots))
	for _, snap := range snapshots {
		qv, err := decimal.NewFromString(snap.QuoteVolume)
		if err != nil {
			qv = decimal.Zero
		}
		volumes[snap.BaseAsset] = qv
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := volumes[snapshots[i].BaseAsset], volumes[snapshots[j].BaseAsset]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return snapshots[i].BaseAsset < snapshots[j].BaseAsset
	})
}

// closes returns candle closes for symbol, served from Redis when a recent
// copy long enough for the RSI period exists.
func (s *PredictionService) closes(ctx context.Context, symbol string, limit int) ([]float64, error) {
	key := fmt.Sprintf("closes:%s:%s:%d", symbol, s.interval, limit)

	if s.redis != nil {
		cached, err := s.getClosesCache(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("redis cache read error")
		}
		if len(cached) > s.period {
			return cached, nil
		}
	}

	closes, err := s.candles.FetchCandles(ctx, symbol, s.interval, limit)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && len(closes) > s.period {
		if err := s.setClosesCache(ctx, key, closes); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("redis cache write error")
		}
	}
	return closes, nil
}

func (s *PredictionService) setClosesCache(ctx context.Context, key string, closes []float64) error {
	data, err := json.Marshal(closes)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.closesTTL).Err()
}

func (s *PredictionService) getClosesCache(ctx context.Context, key string) ([]float64, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var closes []float64
	if err := json.Unmarshal(data, &closes); err != nil {
		return nil, err
	}
	return closes, nil
}
