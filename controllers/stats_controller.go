package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/utils"
)

// StatsController provides aggregate progress statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns subject, completion and award totals.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var subjectCount int64
	var completions int64
	var xpTotal int64

	q := s.db.WithContext(ctx.Request.Context())

	if err := q.Model(&models.Profile{}).Count(&subjectCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		subjectCount = 0
	}

	if err := q.Model(&models.Profile{}).
		Select("COALESCE(SUM(completed_count),0)").
		Scan(&completions).Error; err != nil {
		completions = 0
	}

	if err := q.Model(&models.Profile{}).
		Select("COALESCE(SUM(xp),0)").
		Scan(&xpTotal).Error; err != nil {
		xpTotal = 0
	}

	type badgeCount struct {
		BadgeCode string `json:"badge_code"`
		Total     int64  `json:"total"`
	}
	awards := []badgeCount{}
	if err := q.Model(&models.Award{}).
		Select("badge_code, COUNT(*) AS total").
		Group("badge_code").
		Order("badge_code ASC").
		Scan(&awards).Error; err != nil {
		awards = []badgeCount{}
	}

	utils.Success(ctx, gin.H{
		"subject_count":    subjectCount,
		"completion_count": completions,
		"xp_total":         xpTotal,
		"awards_by_badge":  awards,
	})
}
