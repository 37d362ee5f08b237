package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"coin-pulse/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type stubPredictions struct {
	coins      domain.Result[[]domain.CoinSummary]
	prediction domain.Result[domain.PredictionResult]
	symbol     string
}

func (s *stubPredictions) GetPrediction(_ context.Context, symbol string) domain.Result[domain.PredictionResult] {
	s.symbol = symbol
	return s.prediction
}

func (s *stubPredictions) GetAllCoins(context.Context) domain.Result[[]domain.CoinSummary] {
	return s.coins
}

func connect(t *testing.T, preds PredictionReader) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	server := New(trace.NewNoopTracerProvider().Tracer("test"), logger, preds)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestToolsAreListed(t *testing.T) {
	cs := connect(t, &stubPredictions{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_coins", "get_prediction"}, names)
}

func TestGetPrediction(t *testing.T) {
	preds := &stubPredictions{prediction: domain.Success(domain.PredictionResult{
		Symbol: "ETHUSDT", BaseAsset: "ETH", RSI: 28.4, Prediction: domain.PredictionUp,
	}, "")}
	cs := connect(t, preds)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_prediction",
		Arguments: map[string]any{"symbol": "eth"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))
	assert.Equal(t, "eth", preds.symbol)

	var out domain.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Equal(t, domain.PredictionUp, out.Prediction)
	assert.Equal(t, 28.4, out.RSI)
}

func TestGetPredictionFailureIsToolError(t *testing.T) {
	preds := &stubPredictions{prediction: domain.NotFound[domain.PredictionResult]("Coin data not available for XYZUSDT")}
	cs := connect(t, preds)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_prediction",
		Arguments: map[string]any{"symbol": "xyz"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.True(t, strings.Contains(textOf(t, res), "Coin data not available for XYZUSDT"))
}

func TestListCoinsLimit(t *testing.T) {
	preds := &stubPredictions{coins: domain.Success([]domain.CoinSummary{
		{Symbol: "BTCUSDT", BaseAsset: "BTC"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH"},
		{Symbol: "SOLUSDT", BaseAsset: "SOL"},
	}, "")}
	cs := connect(t, preds)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_coins",
		Arguments: map[string]any{"limit": 2},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out ListCoinsOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	require.Len(t, out.Coins, 2)
	assert.Equal(t, "BTC", out.Coins[0].BaseAsset)
}

func TestListCoinsEmptyCache(t *testing.T) {
	cs := connect(t, &stubPredictions{coins: domain.Failed[[]domain.CoinSummary]("No coin data available yet")})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "list_coins", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
