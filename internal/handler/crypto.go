package handler

import (
	"time"

	"coin-pulse/internal/domain"
	"coin-pulse/internal/job"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CacheStatus reports how fresh the coin cache is.
type CacheStatus struct {
	CachedCoins int        `json:"cachedCoins"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Scheduler   job.Status `json:"scheduler"`
}

// GetCoins godoc
// @Summary      List tracked coins
// @Description  Returns the cached top pairs sorted by 24h quote volume
// @Tags         crypto
// @Produce      json
// @Success      200  {object}  domain.Result[[]domain.CoinSummary]
// @Failure      502  {object}  domain.Result[[]domain.CoinSummary]
// @Router       /crypto/coins [get]
func (h *Handler) GetCoins(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coins")
	defer span.End()

	result := h.predictions.GetAllCoins(ctx)
	span.SetAttributes(attribute.String("result.status", string(result.Status)))
	respond(c, result)
}

// GetPrediction godoc
// @Summary      Predict the short-term direction of a coin
// @Description  Computes the RSI over recent closes and classifies it as Up, Down or Neutral
// @Tags         crypto
// @Produce      json
// @Param        symbol  path  string  true  "Base asset or pair (e.g., BTC, ethusdt)"
// @Success      200  {object}  domain.Result[domain.PredictionResult]
// @Failure      400  {object}  domain.Result[domain.PredictionResult]
// @Failure      404  {object}  domain.Result[domain.PredictionResult]
// @Failure      502  {object}  domain.Result[domain.PredictionResult]
// @Router       /crypto/prediction/{symbol} [get]
func (h *Handler) GetPrediction(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prediction")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	result := h.predictions.GetPrediction(ctx, symbol)
	span.SetAttributes(attribute.String("result.status", string(result.Status)))
	respond(c, result)
}

// GetStatus godoc
// @Summary      Refresh status
// @Description  Returns the cache size, last refresh time and scheduler state
// @Tags         crypto
// @Produce      json
// @Success      200  {object}  domain.Result[CacheStatus]
// @Router       /crypto/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-status")
	defer span.End()

	respond(c, domain.Success(h.cacheStatus(), ""))
}

// TriggerRefresh godoc
// @Summary      Refresh the coin list now
// @Description  Runs a refresh cycle, joining one already in progress
// @Tags         crypto
// @Produce      json
// @Success      200  {object}  domain.Result[CacheStatus]
// @Failure      502  {object}  domain.Result[CacheStatus]
// @Router       /crypto/refresh [post]
func (h *Handler) TriggerRefresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-refresh")
	defer span.End()

	if err := h.scheduler.Refresh(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		respond(c, domain.Failed[CacheStatus]("Refresh failed: "+err.Error()))
		return
	}
	respond(c, domain.Success(h.cacheStatus(), "Refresh completed"))
}

func (h *Handler) cacheStatus() CacheStatus {
	return CacheStatus{
		CachedCoins: h.coins.Size(),
		UpdatedAt:   h.coins.UpdatedAt(),
		Scheduler:   h.scheduler.Status(),
	}
}
