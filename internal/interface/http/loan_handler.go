package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	repo "github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/pkg/response"
	"github.com/oksasatya/library-loans-api/pkg/validation"
)

type LoanHandler struct {
	Svc    *application.LoanService
	Books  *application.BookService
	Users  *application.UserService
	Logger *logrus.Logger

	ExtendDefaultDays int
	ExtendMaxDays     int
}

func NewLoanHandler(svc *application.LoanService, books *application.BookService, users *application.UserService, logger *logrus.Logger, extendDefault, extendMax int) *LoanHandler {
	if extendDefault <= 0 {
		extendDefault = 7
	}
	if extendMax < extendDefault {
		extendMax = extendDefault
	}
	return &LoanHandler{
		Svc:               svc,
		Books:             books,
		Users:             users,
		Logger:            logger,
		ExtendDefaultDays: extendDefault,
		ExtendMaxDays:     extendMax,
	}
}

type borrowRequest struct {
	UserID  string `json:"user_id" binding:"required,uuid"`
	BookID  string `json:"book_id" binding:"required,uuid"`
	DueDate string `json:"due_date" binding:"omitempty,date"`
}

type updateLoanRequest struct {
	Status  *string `json:"status" binding:"omitnil,loan_status"`
	DueDate *string `json:"due_date" binding:"omitempty,date"`
}

type extendRequest struct {
	Days *int `json:"days" binding:"omitempty,min=1"`
}

// futureDate parses a YYYY-MM-DD value that must fall strictly after today.
func (h *LoanHandler) futureDate(v string) (time.Time, map[string]string) {
	d, err := entity.ParseDate(v)
	if err != nil {
		return time.Time{}, validation.Field("due_date", "must be a date in YYYY-MM-DD format")
	}
	if !d.After(h.Svc.Today()) {
		return time.Time{}, validation.Field("due_date", "must be a date after today")
	}
	return d, nil
}

func (h *LoanHandler) List(c *gin.Context) {
	loans, err := h.Svc.GetAllLoans(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(loans, loanView), "loans retrieved", gin.H{"count": len(loans)})
}

func (h *LoanHandler) Show(c *gin.Context) {
	l, err := h.Svc.GetLoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, loanView(l), "loan retrieved", nil)
}

// Borrow handles POST /loans. Referenced user and book must exist (422 otherwise).
func (h *LoanHandler) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	ctx := c.Request.Context()

	details := map[string]string{}
	if _, err := h.Users.GetUserByID(ctx, req.UserID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			writeServiceError(c, h.Logger, "user", err)
			return
		}
		details["user_id"] = "does not exist"
	}
	if _, err := h.Books.GetBookByID(ctx, req.BookID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			writeServiceError(c, h.Logger, "book", err)
			return
		}
		details["book_id"] = "does not exist"
	}
	var due *time.Time
	if req.DueDate != "" {
		d, bad := h.futureDate(req.DueDate)
		if bad != nil {
			for k, v := range bad {
				details[k] = v
			}
		} else {
			due = &d
		}
	}
	if len(details) > 0 {
		validationFailed(c, details)
		return
	}

	l, err := h.Svc.BorrowBook(ctx, req.UserID, req.BookID, due)
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusCreated, loanView(l), "book borrowed", nil)
}

func (h *LoanHandler) Return(c *gin.Context) {
	l, err := h.Svc.ReturnBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, loanView(l), "book returned", nil)
}

func (h *LoanHandler) MarkAsDelayed(c *gin.Context) {
	l, err := h.Svc.MarkAsDelayed(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, loanView(l), "loan marked as delayed", nil)
}

// Extend handles POST /loans/:id/extend with an optional {"days": n} body.
func (h *LoanHandler) Extend(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	days := h.ExtendDefaultDays
	if req.Days != nil {
		days = *req.Days
	}
	if days < 1 || days > h.ExtendMaxDays {
		validationFailed(c, validation.Field("days", "must be between 1 and "+strconv.Itoa(h.ExtendMaxDays)))
		return
	}
	l, err := h.Svc.ExtendLoan(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, loanView(l), "loan extended", gin.H{"days": days})
}

// Overdue runs the delay sweep and then lists every overdue loan. Both steps
// use one date so a request that straddles midnight reports a consistent set.
func (h *LoanHandler) Overdue(c *gin.Context) {
	ctx := c.Request.Context()
	today := h.Svc.Today()
	n, err := h.Svc.UpdateDelayedLoansAt(ctx, today)
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	loans, err := h.Svc.GetDelayedLoansAt(ctx, today)
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(loans, loanView), "overdue loans retrieved", gin.H{
		"count":   len(loans),
		"updated": n,
	})
}

func (h *LoanHandler) MarkOverdue(c *gin.Context) {
	n, err := h.Svc.UpdateDelayedLoans(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n}, "overdue loans updated", nil)
}

// Update serves PUT and PATCH /loans/:id.
func (h *LoanHandler) Update(c *gin.Context) {
	var req updateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	var in application.UpdateLoanInput
	if req.Status != nil {
		s := entity.LoanStatus(*req.Status)
		in.Status = &s
	}
	if req.DueDate != nil {
		d, bad := h.futureDate(*req.DueDate)
		if bad != nil {
			validationFailed(c, bad)
			return
		}
		in.DueDate = &d
	}
	l, err := h.Svc.UpdateLoan(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success(c, http.StatusOK, loanView(l), "loan updated", nil)
}

func (h *LoanHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteLoan(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, "loan", err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "loan deleted", nil)
}
