package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"coin-pulse/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const requestTimeout = 20 * time.Second

type PredictionReader interface {
	GetPrediction(ctx context.Context, symbol string) domain.Result[domain.PredictionResult]
	GetAllCoins(ctx context.Context) domain.Result[[]domain.CoinSummary]
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Services struct {
	Predictions PredictionReader
	Refresher   Refresher
	Username    string
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tableStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	upStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	downStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	neutralStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
)

type coinsLoadedMsg struct {
	result domain.Result[[]domain.CoinSummary]
}

type predictionMsg struct {
	result domain.Result[domain.PredictionResult]
}

type refreshFailedMsg struct {
	err error
}

// Model is the coin dashboard shown to SSH sessions.
type Model struct {
	services Services
	table    table.Model

	width  int
	height int

	loading    bool
	status     string
	errMsg     string
	prediction *domain.PredictionResult
}

func NewModel(services Services) *Model {
	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Model{services: services, table: t, loading: true, status: "Loading coins..."}
}

func columns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Coin", Width: 10},
		{Title: "Pair", Width: 14},
		{Title: "Last", Width: 16},
		{Title: "Quote Vol", Width: 12},
	}
}

// SetSize fits the table to the terminal window.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if h := height - 9; h > 3 {
		m.table.SetHeight(h)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.loadCoins()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.errMsg = ""
			m.status = "Refreshing..."
			return m, m.refresh()
		case "enter":
			row := m.table.SelectedRow()
			if row == nil || m.loading {
				return m, nil
			}
			m.loading = true
			m.errMsg = ""
			m.status = "Predicting " + row[1] + "..."
			return m, m.predict(row[1])
		}

	case coinsLoadedMsg:
		m.loading = false
		if !msg.result.OK() || msg.result.Data == nil {
			m.errMsg = msg.result.Message
			m.status = ""
			return m, nil
		}
		m.table.SetRows(rows(*msg.result.Data))
		m.status = fmt.Sprintf("%d coins, updated %s", len(*msg.result.Data), time.Now().Format("15:04:05"))
		return m, nil

	case predictionMsg:
		m.loading = false
		m.status = ""
		if !msg.result.OK() || msg.result.Data == nil {
			m.errMsg = msg.result.Message
			m.prediction = nil
			return m, nil
		}
		m.prediction = msg.result.Data
		return m, nil

	case refreshFailedMsg:
		m.loading = false
		m.status = ""
		m.errMsg = "Refresh failed: " + msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder

	title := "coin-pulse"
	if m.services.Username != "" {
		title += "  " + m.services.Username
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(tableStyle.Render(m.table.View()))
	b.WriteString("\n")

	if m.prediction != nil {
		b.WriteString(predictionLine(*m.prediction))
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(helpStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter predict • r refresh • q quit"))
	return b.String()
}

func (m *Model) loadCoins() tea.Cmd {
	preds := m.services.Predictions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return coinsLoadedMsg{result: preds.GetAllCoins(ctx)}
	}
}

func (m *Model) refresh() tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if svc.Refresher != nil {
			if err := svc.Refresher.Refresh(ctx); err != nil {
				return refreshFailedMsg{err: err}
			}
		}
		return coinsLoadedMsg{result: svc.Predictions.GetAllCoins(ctx)}
	}
}

func (m *Model) predict(symbol string) tea.Cmd {
	preds := m.services.Predictions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return predictionMsg{result: preds.GetPrediction(ctx, symbol)}
	}
}

func rows(coins []domain.CoinSummary) []table.Row {
	out := make([]table.Row, 0, len(coins))
	for i, coin := range coins {
		out = append(out, table.Row{
			strconv.Itoa(i + 1),
			coin.BaseAsset,
			coin.Symbol,
			coin.LastPrice,
			FormatVolume(coin.QuoteVolume),
		})
	}
	return out
}

func predictionLine(p domain.PredictionResult) string {
	style := neutralStyle
	switch p.Prediction {
	case domain.PredictionUp:
		style = upStyle
	case domain.PredictionDown:
		style = downStyle
	}
	return fmt.Sprintf("%s  RSI %.2f  %s", p.Symbol, p.RSI, style.Render(string(p.Prediction)))
}

var volumeUnits = []struct {
	suffix string
	size   decimal.Decimal
}{
	{"B", decimal.New(1, 9)},
	{"M", decimal.New(1, 6)},
	{"K", decimal.New(1, 3)},
}

// FormatVolume abbreviates a decimal volume string, e.g. "1234567.8" -> "1.23M".
func FormatVolume(raw string) string {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	for _, unit := range volumeUnits {
		if v.Abs().GreaterThanOrEqual(unit.size) {
			return v.Div(unit.size).StringFixed(2) + unit.suffix
		}
	}
	return v.StringFixed(2)
}
