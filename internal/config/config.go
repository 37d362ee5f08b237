package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BinanceBaseURL        string
	RefreshInterval       time.Duration
	RSIPeriod             int
	QuoteAsset            string
	TopN                  int
	CandleInterval        string
	HTTPTimeoutSecs       int
	BinanceRequestsPerSec float64
	BinanceRetryCount     int

	RedisURL          string
	ClosesCacheTTLSec int

	HTTPPort int

	TelegramBotToken string

	SSHPort        int
	SSHHostKeyPath string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int
}

var validIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// Load reads the configuration from the environment. Invalid values fall back
// to their defaults.
func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
	}

	cfg.BinanceBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BINANCE_BASE_URL")), "/")
	if cfg.BinanceBaseURL == "" {
		cfg.BinanceBaseURL = "https://api.binance.com"
	}

	cfg.RefreshInterval = time.Duration(positiveInt("REFRESH_INTERVAL_MS", 300000)) * time.Millisecond
	cfg.RSIPeriod = positiveInt("RSI_PERIOD", 14)
	cfg.TopN = positiveInt("TOP_N", 100)
	cfg.HTTPTimeoutSecs = positiveInt("HTTP_TIMEOUT_SECS", 10)
	cfg.ClosesCacheTTLSec = positiveInt("CLOSES_CACHE_TTL_SECS", 60)
	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)

	cfg.BinanceRetryCount = 2
	if v := strings.TrimSpace(os.Getenv("BINANCE_RETRY_COUNT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BinanceRetryCount = n
		}
	}

	cfg.BinanceRequestsPerSec = 10
	if v := strings.TrimSpace(os.Getenv("BINANCE_REQUESTS_PER_SEC")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.BinanceRequestsPerSec = n
		}
	}

	cfg.QuoteAsset = strings.ToUpper(strings.TrimSpace(os.Getenv("QUOTE_ASSET")))
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}

	cfg.CandleInterval = strings.TrimSpace(os.Getenv("CANDLE_INTERVAL"))
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1h"
	}
	if !validIntervals[cfg.CandleInterval] {
		log.Printf("Warning: unsupported CANDLE_INTERVAL=%q, defaulting to 1h", cfg.CandleInterval)
		cfg.CandleInterval = "1h"
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, candle closes will not be cached")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/coin_pulse_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	return cfg
}

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
	}
	return def
}
