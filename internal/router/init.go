package router

import (
	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/container"
	handlers "github.com/oksasatya/library-loans-api/internal/interface/http"
	"github.com/oksasatya/library-loans-api/internal/router/modules"
)

// LibraryDeps holds the services and handlers built from the container.
type LibraryDeps struct {
	Books *application.BookService
	Users *application.UserService
	Loans *application.LoanService

	BookHandler *handlers.BookHandler
	UserHandler *handlers.UserHandler
	LoanHandler *handlers.LoanHandler
}

func BuildLibraryDeps() LibraryDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	store := container.GetStore()

	books := application.NewBookService(store, container.GetGCS(), cfg.GCSBucket, logger)
	users := application.NewUserService(store, logger)
	loans := application.NewLoanService(store, books, container.GetNotifier(), logger)
	loans.Now = container.GetClock()
	loans.Location = cfg.Location()
	loans.DefaultDays = cfg.LoanDefaultDays

	return LibraryDeps{
		Books:       books,
		Users:       users,
		Loans:       loans,
		BookHandler: handlers.NewBookHandler(books, logger),
		UserHandler: handlers.NewUserHandler(users, loans, logger),
		LoanHandler: handlers.NewLoanHandler(loans, books, users, logger, cfg.LoanExtendDefaultDays, cfg.LoanExtendMaxDays),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := BuildLibraryDeps()
	rdb := container.GetRedis()

	r.Add(modules.NewBookModule(deps.BookHandler, rdb))
	r.Add(modules.NewUserModule(deps.UserHandler))
	r.Add(modules.NewLoanModule(deps.LoanHandler, rdb))

	if container.GetConfig().DebugMetricsEnabled {
		r.AddRoot(modules.NewDebugModule(rdb))
	}
}
