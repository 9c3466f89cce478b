package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/taskquest/progress"
	"github.com/cppla/taskquest/utils"
)

// ProgressController exposes the progress engine to the task lifecycle collaborator.
type ProgressController struct {
	tracker  *progress.Tracker
	cacheTTL time.Duration
}

// NewProgressController creates a new controller instance.
func NewProgressController(tracker *progress.Tracker, cacheTTL time.Duration) *ProgressController {
	return &ProgressController{tracker: tracker, cacheTTL: cacheTTL}
}

// Complete records that one of the subject's tasks was completed.
func (p *ProgressController) Complete(ctx *gin.Context) {
	subject := ctx.Param("subject")
	result, err := p.tracker.OnTaskCompleted(ctx.Request.Context(), subject)
	// The profile may already be saved even when badge evaluation failed.
	utils.InvalidateSubject(ctx.Request.Context(), subject)
	if err != nil {
		respondError(ctx, err, "failed to record completion")
		return
	}
	utils.Success(ctx, result)
}

// Uncomplete records that a task went back to incomplete. Rewards stay as they are.
func (p *ProgressController) Uncomplete(ctx *gin.Context) {
	result, err := p.tracker.OnTaskUncompleted(ctx.Request.Context(), ctx.Param("subject"))
	if err != nil {
		respondError(ctx, err, "failed to record un-completion")
		return
	}
	utils.Success(ctx, result)
}

// GetProfile returns the subject's current progress.
func (p *ProgressController) GetProfile(ctx *gin.Context) {
	subject := ctx.Param("subject")
	p.cached(ctx, utils.ProjectionKey(subject, "profile"), func() (interface{}, error) {
		return p.tracker.Profile(ctx.Request.Context(), subject)
	}, "failed to load profile")
}

// GetBadgeStatus returns the catalog marked unlocked or locked for the subject.
func (p *ProgressController) GetBadgeStatus(ctx *gin.Context) {
	subject := ctx.Param("subject")
	p.cached(ctx, utils.ProjectionKey(subject, "badges"), func() (interface{}, error) {
		return p.tracker.CatalogFor(ctx.Request.Context(), subject)
	}, "failed to load badges")
}

// GetAwards lists the badges the subject unlocked with their award time.
func (p *ProgressController) GetAwards(ctx *gin.Context) {
	awards, err := p.tracker.Awards(ctx.Request.Context(), ctx.Param("subject"))
	if err != nil {
		respondError(ctx, err, "failed to load awards")
		return
	}
	utils.Success(ctx, awards)
}

// GetCatalog returns every badge definition.
func (p *ProgressController) GetCatalog(ctx *gin.Context) {
	p.cached(ctx, utils.CacheKeyCatalog, func() (interface{}, error) {
		return p.tracker.Catalog(ctx.Request.Context())
	}, "failed to fetch badges")
}

// cached answers with the envelope stored under key, loading and storing it on a miss.
func (p *ProgressController) cached(ctx *gin.Context, key string, load func() (interface{}, error), failMsg string) {
	body, err := utils.CachedEnvelope(ctx.Request.Context(), key, p.cacheTTL, load)
	if err != nil {
		respondError(ctx, err, failMsg)
		return
	}
	utils.SuccessRaw(ctx, body)
}

func respondError(ctx *gin.Context, err error, failMsg string) {
	switch {
	case errors.Is(err, progress.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, progress.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, err.Error())
	case errors.Is(err, progress.ErrLockTimeout):
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "subject busy, retry later")
	default:
		utils.Sugar.Errorw(failMsg, "path", ctx.Request.URL.Path, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, failMsg)
	}
}
