package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/library-loans-api/internal/interface/http"
)

// UserModule wires the borrower routes under /users.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/:id", m.Handler.Show)
		users.PUT("/:id", m.Handler.Update)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
		users.GET("/:id/loans", m.Handler.ListLoans)
		users.GET("/:id/loans/active", m.Handler.ActiveLoans)
		users.GET("/:id/loans/overdue", m.Handler.OverdueLoans)
	}
}
