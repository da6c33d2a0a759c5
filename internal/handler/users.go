package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpulse/internal/auth"
	"coinpulse/internal/service"
)

type UserPredictionHandler struct {
	Resolver    *service.Resolver
	Submissions *service.SubmissionService
	Logger      *zap.Logger
}

func (h *UserPredictionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/users/me/predictions")
	group.GET("", h.list)
	group.DELETE("/:slug/:timeframe", h.delete)
}

// @Summary List the caller's predictions, reconciled against live prices
// @Tags users
// @Success 200 {array} service.ResolvedPrediction
// @Router /api/users/me/predictions [get]
func (h *UserPredictionHandler) list(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	results, err := h.Resolver.ResolveForUser(c.Request.Context(), userID)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("prediction resolution failed", zap.String("user", userID), zap.Error(err))
		}
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// @Summary Delete the caller's prediction for a slug and timeframe
// @Tags users
// @Success 200 {object} map[string]string
// @Router /api/users/me/predictions/{slug}/{timeframe} [delete]
func (h *UserPredictionHandler) delete(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	slug := c.Param("slug")
	timeframe := c.Param("timeframe")

	if err := h.Submissions.Delete(c.Request.Context(), userID, slug, timeframe); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("prediction deletion failed",
				zap.String("user", userID), zap.String("slug", slug), zap.Error(err))
		}
		FailFrom(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Your prediction has been successfully deleted."})
}
