package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coin-pulse/internal/config"
	"coin-pulse/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/trace"
)

const tickersBody = `[
	{"symbol":"BTCUSDT","lastPrice":"65000","openPrice":"64000","highPrice":"66000","lowPrice":"63000","volume":"10","quoteVolume":"650000","openTime":0,"closeTime":0,"count":1},
	{"symbol":"ETHUSDT","lastPrice":"3000","openPrice":"2900","highPrice":"3100","lowPrice":"2800","volume":"100","quoteVolume":"300000","openTime":0,"closeTime":0,"count":1}
]`

func stubRedis(t *testing.T, client *redis.Client, err error) {
	t.Helper()
	orig := initRedisFunc
	t.Cleanup(func() { initRedisFunc = orig })
	initRedisFunc = func(context.Context, string, *logrus.Logger) (*redis.Client, error) {
		return client, err
	}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BinanceBaseURL:        baseURL,
		RefreshInterval:       time.Hour,
		RSIPeriod:             14,
		QuoteAsset:            "USDT",
		TopN:                  100,
		CandleInterval:        "1h",
		HTTPTimeoutSecs:       2,
		BinanceRequestsPerSec: 100,
		ClosesCacheTTLSec:     60,
	}
}

func TestNewStartPopulatesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tickersBody))
	}))
	defer srv.Close()
	stubRedis(t, nil, nil)

	logger, _ := test.NewNullLogger()
	a := New(context.Background(), testConfig(srv.URL), trace.NewNoopTracerProvider().Tracer("test"), logger)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start error: %v", err)
	}
	defer a.Close()

	deadline := time.Now().Add(2 * time.Second)
	for a.Coins.Size() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("cache not populated, size=%d", a.Coins.Size())
		}
		time.Sleep(10 * time.Millisecond)
	}

	result := a.Predictions.GetAllCoins(context.Background())
	if result.Status != domain.StatusSuccess || len(*result.Data) != 2 || (*result.Data)[0].BaseAsset != "BTC" {
		t.Fatalf("unexpected coins result: %+v", result)
	}
}

func TestNewContinuesWithoutRedis(t *testing.T) {
	stubRedis(t, nil, errors.New("connection refused"))

	logger, hook := test.NewNullLogger()
	a := New(context.Background(), testConfig("http://127.0.0.1:0"), trace.NewNoopTracerProvider().Tracer("test"), logger)
	if a.Predictions == nil || a.redis != nil {
		t.Fatalf("expected app without redis, got %+v", a)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatal("expected redis failure warning")
	}
	a.Close()
}
