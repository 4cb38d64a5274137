package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	"github.com/oksasatya/library-loans-api/pkg/response"
	"github.com/oksasatya/library-loans-api/pkg/validation"
)

const (
	minSearchLength = 3
	maxCoverBytes   = 5 << 20
)

type BookHandler struct {
	Svc    *application.BookService
	Logger *logrus.Logger
}

func NewBookHandler(svc *application.BookService, logger *logrus.Logger) *BookHandler {
	return &BookHandler{Svc: svc, Logger: logger}
}

type createBookRequest struct {
	Title              string `json:"title" binding:"required,notblank,max=255"`
	Author             string `json:"author" binding:"required,notblank,max=255"`
	RegistrationNumber string `json:"registration_number" binding:"required,notblank,max=50"`
	Genre              string `json:"genre" binding:"required,genre"`
}

type updateBookRequest struct {
	Title              *string `json:"title" binding:"omitnil,notblank,max=255"`
	Author             *string `json:"author" binding:"omitnil,notblank,max=255"`
	RegistrationNumber *string `json:"registration_number" binding:"omitnil,notblank,max=50"`
	Genre              *string `json:"genre" binding:"omitnil,genre"`
}

// List handles GET /books with optional ?status= and ?genre= filters.
func (h *BookHandler) List(c *gin.Context) {
	var (
		status *entity.BookStatus
		genre  *entity.Genre
	)
	if v := c.Query("status"); v != "" {
		s, err := entity.ParseBookStatus(v)
		if err != nil {
			validationFailed(c, validation.Field("status", "must be one of: available, borrowed"))
			return
		}
		status = &s
	}
	if v := c.Query("genre"); v != "" {
		g, err := entity.ParseGenre(v)
		if err != nil {
			validationFailed(c, validation.Field("genre", "is not a known genre"))
			return
		}
		genre = &g
	}
	books, err := h.Svc.FindBooks(c.Request.Context(), status, genre)
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(books, bookView), "books retrieved", gin.H{"count": len(books)})
}

func (h *BookHandler) Available(c *gin.Context) {
	books, err := h.Svc.GetAvailableBooks(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(books, bookView), "available books retrieved", gin.H{"count": len(books)})
}

func (h *BookHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(q) < minSearchLength {
		validationFailed(c, validation.Field("q", "must be at least 3 characters long"))
		return
	}
	books, err := h.Svc.SearchBooks(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(books, bookView), "search results", gin.H{"count": len(books), "q": q})
}

func (h *BookHandler) ByGenre(c *gin.Context) {
	genre, err := entity.ParseGenre(c.Param("genre"))
	if err != nil {
		validationFailed(c, validation.Field("genre", "is not a known genre"))
		return
	}
	books, err := h.Svc.GetBooksByGenre(c.Request.Context(), genre)
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, mapViews(books, bookView), "books retrieved", gin.H{"count": len(books), "genre": genre})
}

func (h *BookHandler) Show(c *gin.Context) {
	b, err := h.Svc.GetBookByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, bookView(b), "book retrieved", nil)
}

func (h *BookHandler) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	b, err := h.Svc.CreateBook(c.Request.Context(), application.CreateBookInput{
		Title:              strings.TrimSpace(req.Title),
		Author:             strings.TrimSpace(req.Author),
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Genre:              entity.Genre(req.Genre),
	})
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusCreated, bookView(b), "book created", nil)
}

// Update serves both PUT and PATCH; absent fields are left unchanged.
func (h *BookHandler) Update(c *gin.Context) {
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, validation.ToDetails(err))
		return
	}
	in := application.UpdateBookInput{
		Title:              trimmed(req.Title),
		Author:             trimmed(req.Author),
		RegistrationNumber: trimmed(req.RegistrationNumber),
	}
	if req.Genre != nil {
		g := entity.Genre(*req.Genre)
		in.Genre = &g
	}
	b, err := h.Svc.UpdateBook(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, bookView(b), "book updated", nil)
}

func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "book deleted", nil)
}

// UploadCover accepts a multipart "cover" image and stores it in GCS.
func (h *BookHandler) UploadCover(c *gin.Context) {
	file, err := c.FormFile("cover")
	if err != nil {
		validationFailed(c, validation.Field("cover", "is required"))
		return
	}
	if file.Size > maxCoverBytes {
		validationFailed(c, validation.Field("cover", "must be at most 5 MB"))
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		validationFailed(c, validation.Field("cover", "must be an image"))
		return
	}
	f, err := file.Open()
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	defer func() { _ = f.Close() }()

	b, err := h.Svc.UploadCover(c.Request.Context(), c.Param("id"), f, file.Filename, contentType)
	if err != nil {
		writeServiceError(c, h.Logger, "book", err)
		return
	}
	response.Success(c, http.StatusOK, bookView(b), "cover uploaded", nil)
}

// trimmed returns p with surrounding whitespace removed, keeping nil as nil.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
