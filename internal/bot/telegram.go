package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coin-pulse/internal/domain"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

const (
	topCoinsShown  = 10
	commandTimeout = 20 * time.Second
)

type PredictionReader interface {
	GetPrediction(ctx context.Context, symbol string) domain.Result[domain.PredictionResult]
	GetAllCoins(ctx context.Context) domain.Result[[]domain.CoinSummary]
}

var newBotFunc = tele.NewBot

// StartTelegramBot registers the bot commands and starts long polling in the
// background. An empty token disables the bot.
func StartTelegramBot(token string, predictions PredictionReader, logger *logrus.Logger) (*tele.Bot, error) {
	if token == "" {
		logger.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := newBotFunc(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.WithError(err).Warn("telegram handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/coins", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(coinsReply(ctx, predictions))
	})

	b.Handle("/predict", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(predictReply(ctx, predictions, c.Args()))
	})

	logger.Info("Telegram bot started")
	go b.Start()
	return b, nil
}

func coinsReply(ctx context.Context, predictions PredictionReader) string {
	result := predictions.GetAllCoins(ctx)
	if !result.OK() || result.Data == nil {
		return result.Message
	}
	coins := *result.Data
	if len(coins) > topCoinsShown {
		coins = coins[:topCoinsShown]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top %d by 24h quote volume\n", len(coins))
	for i, coin := range coins {
		fmt.Fprintf(&sb, "%d. %s  %s  vol %s\n", i+1, coin.BaseAsset, coin.LastPrice, coin.QuoteVolume)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func predictReply(ctx context.Context, predictions PredictionReader, args []string) string {
	if len(args) == 0 {
		return "Usage: /predict BTC"
	}
	result := predictions.GetPrediction(ctx, args[0])
	if !result.OK() || result.Data == nil {
		return result.Message
	}
	p := result.Data
	return fmt.Sprintf("%s (%s)\nRSI: %.2f\nPrediction: %s", p.BaseAsset, p.Symbol, p.RSI, p.Prediction)
}
