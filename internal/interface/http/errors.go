package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/application"
	repo "github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
	"github.com/oksasatya/library-loans-api/pkg/response"
	"github.com/oksasatya/library-loans-api/pkg/validation"
)

// writeServiceError maps service and repository errors onto the envelope.
// resource names the entity for 404 messages, e.g. "loan".
func writeServiceError(c *gin.Context, logger *logrus.Logger, resource string, err error) {
	var notAvailable *application.BookNotAvailableError
	switch {
	case errors.As(err, &notAvailable):
		var data gin.H
		if notAvailable.Book != nil {
			data = gin.H{"book": bookSummary(notAvailable.Book)}
		}
		response.ErrorWithData(c, http.StatusConflict, "book is not available for loan", data, nil)
	case errors.Is(err, repo.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, resource+" not found", nil)
	case errors.Is(err, application.ErrInvalidTransition):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, application.ErrBookBorrowed):
		response.Error[any](c, http.StatusConflict, "book is currently borrowed and cannot be deleted", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", validation.Field("email", "has already been taken"))
	case errors.Is(err, application.ErrRegistrationTaken):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", validation.Field("registration_number", "has already been taken"))
	case errors.Is(err, helpers.ErrPasswordTooLong):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", validation.Field("password", err.Error()))
	case errors.Is(err, application.ErrInvalidExtension):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", validation.Field("days", err.Error()))
	case errors.Is(err, repo.ErrConflict):
		response.Error[any](c, http.StatusConflict, resource+" conflicts with an existing record", nil)
	case errors.Is(err, application.ErrStorageNotReady):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		}).Error("request failed")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func validationFailed(c *gin.Context, details map[string]string) {
	response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", details)
}
