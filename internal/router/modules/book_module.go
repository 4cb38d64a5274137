package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/library-loans-api/internal/interface/http"
	"github.com/oksasatya/library-loans-api/internal/interface/middleware"
)

// BookModule wires the catalogue routes under /books.
type BookModule struct {
	Handler *handlers.BookHandler
	Redis   *redis.Client
}

func NewBookModule(h *handlers.BookHandler, rdb *redis.Client) *BookModule {
	return &BookModule{Handler: h, Redis: rdb}
}

func (m *BookModule) Register(rg *gin.RouterGroup) {
	uploadLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	books := rg.Group("/books")
	{
		books.GET("", m.Handler.List)
		books.POST("", m.Handler.Create)
		books.GET("/available", m.Handler.Available)
		books.GET("/search", m.Handler.Search)
		books.GET("/by-genre/:genre", m.Handler.ByGenre)
		books.GET("/:id", m.Handler.Show)
		books.PUT("/:id", m.Handler.Update)
		books.PATCH("/:id", m.Handler.Update)
		books.DELETE("/:id", m.Handler.Delete)
		books.POST("/:id/cover", uploadLimiter, m.Handler.UploadCover)
	}
}
