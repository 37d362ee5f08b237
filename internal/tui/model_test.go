package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coin-pulse/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type stubRefresher struct {
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.calls++
	return s.err
}

func sampleCoins() []domain.CoinSummary {
	return []domain.CoinSummary{
		{Symbol: "BTCUSDT", BaseAsset: "BTC", LastPrice: "65000.10", QuoteVolume: "1500000000"},
		{Symbol: "ETHUSDT", BaseAsset: "ETH", LastPrice: "3100.5", QuoteVolume: "820000000"},
	}
}

func runCmd(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestInitLoadsCoins(t *testing.T) {
	preds := &stubPredictions{coins: domain.Success(sampleCoins(), "")}
	m := NewModel(Services{Predictions: preds})

	runCmd(t, m, m.Init())

	assert.False(t, m.loading)
	assert.Empty(t, m.errMsg)
	view := m.View()
	assert.Contains(t, view, "BTCUSDT")
	assert.Contains(t, view, "1.50B")
	assert.Contains(t, view, "2 coins")
}

func TestInitShowsFailureMessage(t *testing.T) {
	preds := &stubPredictions{coins: domain.Failed[[]domain.CoinSummary]("No coin data available yet")}
	m := NewModel(Services{Predictions: preds})

	runCmd(t, m, m.Init())

	assert.Contains(t, m.View(), "No coin data available yet")
}

func TestEnterPredictsSelectedRow(t *testing.T) {
	preds := &stubPredictions{
		coins: domain.Success(sampleCoins(), ""),
		prediction: domain.Success(domain.PredictionResult{
			Symbol: "BTCUSDT", BaseAsset: "BTC", RSI: 75.2, Prediction: domain.PredictionDown,
		}, ""),
	}
	m := NewModel(Services{Predictions: preds})
	runCmd(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.loading)
	runCmd(t, m, cmd)

	assert.Equal(t, "BTC", preds.symbol)
	require.NotNil(t, m.prediction)
	assert.Equal(t, domain.PredictionDown, m.prediction.Prediction)
	assert.Contains(t, m.View(), "RSI 75.20")
}

func TestEnterWithoutRowsIsIgnored(t *testing.T) {
	m := NewModel(Services{Predictions: &stubPredictions{}})
	m.loading = false

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestRefreshKey(t *testing.T) {
	preds := &stubPredictions{coins: domain.Success(sampleCoins(), "")}
	refresher := &stubRefresher{}
	m := NewModel(Services{Predictions: preds, Refresher: refresher})
	runCmd(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	runCmd(t, m, cmd)
	assert.Equal(t, 1, refresher.calls)
	assert.False(t, m.loading)

	refresher.err = errors.New("binance down")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	runCmd(t, m, cmd)
	assert.Contains(t, m.View(), "Refresh failed: binance down")
}

func TestQuitKey(t *testing.T) {
	m := NewModel(Services{Predictions: &stubPredictions{}})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestWindowResize(t *testing.T) {
	m := NewModel(Services{Predictions: &stubPredictions{}})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestFormatVolume(t *testing.T) {
	cases := map[string]string{
		"1500000000": "1.50B",
		"1234567.8":  "1.23M",
		"9999":       "10.00K",
		"12.345":     "12.35",
		"n/a":        "n/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatVolume(in), in)
	}
}

func TestViewShowsUsername(t *testing.T) {
	m := NewModel(Services{Predictions: &stubPredictions{}, Username: "alice"})
	assert.True(t, strings.Contains(m.View(), "alice"))
}
