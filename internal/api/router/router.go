package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftsync/backend/config"
	"shiftsync/backend/internal/api/handler"
	"shiftsync/backend/internal/api/middleware"
	"shiftsync/backend/pkg/jwt"
	"shiftsync/backend/pkg/redis"
)

// 写接口速率限制：每 IP 每分钟 60 次
const (
	writeRateLimit  = 60
	writeRateWindow = time.Minute
	maxBodyBytes    = 1 << 20 // 1MB
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时速率限制降级放行（与提交互斥锁的降级策略一致）
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 排程解析
		schedules := v1.Group("/schedules")
		{
			schedules.GET("/resolve", h.Schedule.Resolve)
			schedules.GET("/month", h.Schedule.ResolveMonth)
		}

		// 审批工作流（写接口限速）
		writeLimit := middleware.RateLimit(rdb, writeRateLimit, writeRateWindow)
		pendings := v1.Group("/pendings")
		{
			pendings.POST("", writeLimit, h.Pending.Submit)
			pendings.GET("", h.Pending.List)
			pendings.GET("/:id/history", h.Pending.History)
			pendings.POST("/:id/decision", writeLimit, middleware.RoleAuth("admin", "planner"), h.Pending.Decide)
			pendings.POST("/reconcile", middleware.RoleAuth("admin"), h.Pending.Reconcile)
		}

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/month.xlsx", h.Export.MonthExcel)
			export.GET("/staff.ics", h.Export.StaffICS)
		}
	}

	return r
}
