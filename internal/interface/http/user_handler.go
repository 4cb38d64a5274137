package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/pkg/response"
	"github.com/oksasatya/library-loans-api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Loans  *application.LoanService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, loans *application.LoanService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Loans: loans, Logger: logger}
}

type createUserRequest struct {
	Name               string `json:"name" binding:"required,notblank,max=255"`
	Email              string `json:"email" binding:"required,email,max=255"`
	RegistrationNumber string `json:"registration_number" binding:"required,notblank,max=50"`
	Password           string `json:"password" binding:"required,pwd"`
}

type updateUserRequest struct {
	Name               *string `json:"name" binding:"omitnil,notblank,max=255"`
	Email              *string `json:"email" binding:"omitnil,email,max=255"`
	RegistrationNumber *string `json:"registration_number" binding:"omitnil,notblank,max=50"`
	Password           *string `json:"password" binding:"omitnil,pwd"`
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAllUsers(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(users, userView), "users retrieved", gin.H{"count": len(users)})
}

func (h *UserHandler) Show(c *gin.Context) {
	u, err := h.Svc.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	delayed, err := h.Loans.HasDelayedLoans(c.Request.Context(), u.ID)
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "user retrieved", gin.H{"has_delayed_loans": delayed})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		Name:               strings.TrimSpace(req.Name),
		Email:              req.Email,
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Password:           req.Password,
	})
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusCreated, userView(u), "user created", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), c.Param("id"), application.UpdateUserInput{
		Name:               trimmed(req.Name),
		Email:              trimmed(req.Email),
		RegistrationNumber: trimmed(req.RegistrationNumber),
		Password:           req.Password,
	})
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "user deleted", nil)
}

func (h *UserHandler) ListLoans(c *gin.Context) {
	loans, err := h.Loans.GetLoansForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(loans, loanView), "loans retrieved", gin.H{"count": len(loans)})
}

func (h *UserHandler) ActiveLoans(c *gin.Context) {
	loans, err := h.Loans.GetActiveLoansForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(loans, loanView), "active loans retrieved", gin.H{"count": len(loans)})
}

func (h *UserHandler) OverdueLoans(c *gin.Context) {
	loans, err := h.Loans.GetDelayedLoansForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "user", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(loans, loanView), "overdue loans retrieved", gin.H{
		"count":       len(loans),
		"has_delayed": len(loans) > 0,
	})
}
