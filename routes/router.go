package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/taskquest/config"
	"github.com/cppla/taskquest/controllers"
	"github.com/cppla/taskquest/middleware"
	"github.com/cppla/taskquest/progress"
	"github.com/cppla/taskquest/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(tracker *progress.Tracker, db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file; the app logger stays for engine events
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.HeaderXRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	progressController := controllers.NewProgressController(tracker, time.Duration(cfg.ProfileCacheTTLSec)*time.Second)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController(tracker)

	api := r.Group("/api/v1")
	api.GET("/badges", progressController.GetCatalog)
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/rules", configController.GetRules)

	subjects := api.Group("/subjects/:subject")
	subjects.GET("/profile", progressController.GetProfile)
	subjects.GET("/badges", progressController.GetBadgeStatus)
	subjects.GET("/awards", progressController.GetAwards)

	events := subjects.Group("")
	events.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	events.POST("/completions", progressController.Complete)
	events.POST("/uncompletions", progressController.Uncomplete)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
