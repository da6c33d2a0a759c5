package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpulse/internal/auth"
	"coinpulse/internal/models"
	"coinpulse/internal/service"
)

type PredictionHandler struct {
	Submissions *service.SubmissionService
	Aggregation *service.AggregationService
	Logger      *zap.Logger
}

func (h *PredictionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/predictions")
	group.POST("", h.submit)
	group.GET("", h.listAll)
	group.GET("/:slug/:timeframe", h.stats)
}

// @Summary Submit a prediction vote
// @Tags predictions
// @Accept json
// @Success 200 {object} models.CoinDocument
// @Router /api/predictions [post]
func (h *PredictionHandler) submit(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var in service.SubmissionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.Slug) == "" || strings.TrimSpace(in.Heading) == "" ||
		strings.TrimSpace(in.Symbol) == "" || strings.TrimSpace(in.Prediction.Text) == "" {
		Fail(c, http.StatusBadRequest, "All fields are required.")
		return
	}
	if in.Prediction.Direction != models.DirectionPositive && in.Prediction.Direction != models.DirectionNegative {
		Fail(c, http.StatusBadRequest, "Direction must be positive or negative.")
		return
	}
	if in.Prediction.Timeframe == "" {
		in.Prediction.Timeframe = models.Timeframe24Hours
	}
	if !models.ValidTimeframe(in.Prediction.Timeframe) {
		Fail(c, http.StatusBadRequest, "invalid timeframe")
		return
	}

	doc, err := h.Submissions.Submit(c.Request.Context(), userID, in)
	if err != nil {
		h.logFailure("submit prediction failed", in.Slug, err)
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary Aggregate stats and AI summary for a coin and timeframe
// @Tags predictions
// @Success 200 {object} service.StatsResult
// @Router /api/predictions/{slug}/{timeframe} [get]
func (h *PredictionHandler) stats(c *gin.Context) {
	slug := c.Param("slug")
	timeframe := c.Param("timeframe")

	result, err := h.Aggregation.Stats(c.Request.Context(), slug, timeframe)
	if err != nil {
		h.logFailure("stats computation failed", slug, err)
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary List all coin aggregates
// @Tags predictions
// @Success 200 {array} models.CoinDocument
// @Router /api/predictions [get]
func (h *PredictionHandler) listAll(c *gin.Context) {
	docs, err := h.Submissions.ListAll(c.Request.Context())
	if err != nil {
		h.logFailure("list aggregates failed", "", err)
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *PredictionHandler) logFailure(msg, slug string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn(msg, zap.String("slug", slug), zap.Error(err))
}
