package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/library-loans-api/internal/interface/http"
	"github.com/oksasatya/library-loans-api/internal/interface/middleware"
)

// LoanModule wires the loan lifecycle routes under /loans.
type LoanModule struct {
	Handler *handlers.LoanHandler
	Redis   *redis.Client
}

func NewLoanModule(h *handlers.LoanHandler, rdb *redis.Client) *LoanModule {
	return &LoanModule{Handler: h, Redis: rdb}
}

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	sweepLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	loans := rg.Group("/loans")
	{
		loans.GET("", m.Handler.List)
		loans.POST("", m.Handler.Borrow)
		loans.GET("/overdue", sweepLimiter, m.Handler.Overdue)
		loans.POST("/mark-overdue", sweepLimiter, m.Handler.MarkOverdue)
		loans.GET("/:id", m.Handler.Show)
		loans.PUT("/:id", m.Handler.Update)
		loans.PATCH("/:id", m.Handler.Update)
		loans.DELETE("/:id", m.Handler.Delete)
		loans.GET("/:id/return", m.Handler.Return)
		loans.POST("/:id/return", m.Handler.Return)
		loans.POST("/:id/extend", m.Handler.Extend)
		loans.POST("/:id/mark-as-delayed", m.Handler.MarkAsDelayed)
	}
}
