// Package mcpserver exposes coin listing and RSI predictions as MCP tools.
package mcpserver

import (
	"context"
	"errors"

	"coin-pulse/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "coin-pulse"
	serverVersion = "1.0.0"
)

type PredictionReader interface {
	GetPrediction(ctx context.Context, symbol string) domain.Result[domain.PredictionResult]
	GetAllCoins(ctx context.Context) domain.Result[[]domain.CoinSummary]
}

type ListCoinsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of coins to return, highest quote volume first"`
}

type ListCoinsOutput struct {
	Coins []domain.CoinSummary `json:"coins"`
}

type PredictionInput struct {
	Symbol string `json:"symbol" jsonschema:"base asset or trading pair, e.g. BTC or ETHUSDT"`
}

type tools struct {
	tracer      trace.Tracer
	logger      *logrus.Logger
	predictions PredictionReader
}

// New returns an MCP server with the list_coins and get_prediction tools.
func New(tracer trace.Tracer, logger *logrus.Logger, predictions PredictionReader) *mcp.Server {
	t := &tools{tracer: tracer, logger: logger, predictions: predictions}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_coins",
		Description: "List the tracked top trading pairs sorted by 24h quote volume.",
	}, t.listCoins)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prediction",
		Description: "Compute the RSI for a coin and classify its short-term direction as Up, Down or Neutral.",
	}, t.getPrediction)
	return server
}

func (t *tools) listCoins(ctx context.Context, _ *mcp.CallToolRequest, in ListCoinsInput) (*mcp.CallToolResult, ListCoinsOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.list-coins")
	defer span.End()

	result := t.predictions.GetAllCoins(ctx)
	if err := resultError(result); err != nil {
		t.logger.WithField("status", result.Status).Warn("list_coins failed")
		return nil, ListCoinsOutput{}, err
	}

	coins := *result.Data
	if in.Limit > 0 && in.Limit < len(coins) {
		coins = coins[:in.Limit]
	}
	span.SetAttributes(attribute.Int("coins", len(coins)))
	return nil, ListCoinsOutput{Coins: coins}, nil
}

func (t *tools) getPrediction(ctx context.Context, _ *mcp.CallToolRequest, in PredictionInput) (*mcp.CallToolResult, domain.PredictionResult, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-prediction")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", in.Symbol))

	result := t.predictions.GetPrediction(ctx, in.Symbol)
	if err := resultError(result); err != nil {
		t.logger.WithFields(logrus.Fields{"symbol": in.Symbol, "status": result.Status}).Warn("get_prediction failed")
		return nil, domain.PredictionResult{}, err
	}
	return nil, *result.Data, nil
}

func resultError[T any](result domain.Result[T]) error {
	if err := result.Err(); err != nil {
		return err
	}
	if result.Data == nil {
		return errors.New("empty result")
	}
	return nil
}
