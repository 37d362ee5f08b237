package handler

import (
	"context"
	"net/http"
	"time"

	"coin-pulse/internal/domain"
	"coin-pulse/internal/job"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type PredictionReader interface {
	GetPrediction(ctx context.Context, symbol string) domain.Result[domain.PredictionResult]
	GetAllCoins(ctx context.Context) domain.Result[[]domain.CoinSummary]
}

type RefreshController interface {
	Refresh(ctx context.Context) error
	Status() job.Status
}

type CacheStats interface {
	Size() int
	UpdatedAt() time.Time
}

type Handler struct {
	tracer      trace.Tracer
	predictions PredictionReader
	scheduler   RefreshController
	coins       CacheStats
}

func New(tracer trace.Tracer, predictions PredictionReader, scheduler RefreshController, coins CacheStats) *Handler {
	return &Handler{
		tracer:      tracer,
		predictions: predictions,
		scheduler:   scheduler,
		coins:       coins,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	crypto := r.Group("/crypto")
	crypto.GET("/coins", h.GetCoins)
	crypto.GET("/prediction/:symbol", h.GetPrediction)
	crypto.GET("/status", h.GetStatus)
	crypto.POST("/refresh", h.TriggerRefresh)
}

// StatusCode maps a result status onto the HTTP response code.
func StatusCode(status domain.ResultStatus) int {
	switch status {
	case domain.StatusSuccess:
		return http.StatusOK
	case domain.StatusNotFound:
		return http.StatusNotFound
	case domain.StatusBadRequest:
		return http.StatusBadRequest
	case domain.StatusUnauthorized:
		return http.StatusUnauthorized
	case domain.StatusForbidden:
		return http.StatusForbidden
	case domain.StatusFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respond[T any](c *gin.Context, result domain.Result[T]) {
	c.JSON(StatusCode(result.Status), result)
}
