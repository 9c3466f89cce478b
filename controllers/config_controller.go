package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/taskquest/progress"
	"github.com/cppla/taskquest/utils"
)

// ConfigController serves the reward rules clients need to render progress bars.
type ConfigController struct {
	tracker *progress.Tracker
}

func NewConfigController(tracker *progress.Tracker) *ConfigController {
	return &ConfigController{tracker: tracker}
}

// GetRules returns XP per completion, XP per level and the streak calendar timezone.
func (c *ConfigController) GetRules(ctx *gin.Context) {
	utils.Success(ctx, c.tracker.Rules())
}
