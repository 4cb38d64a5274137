package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/internal/domain/entity"
	repo "github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
)

// BookService owns book records and their availability status.
type BookService struct {
	Store     repo.Store
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

func NewBookService(store repo.Store, gcs *storage.Client, gcsBucket string, logger *logrus.Logger) *BookService {
	if logger == nil {
		logger = helpers.DiscardLogger()
	}
	return &BookService{Store: store, GCS: gcs, GCSBucket: gcsBucket, Logger: logger}
}

// WithStore returns a copy bound to st, typically a transaction.
func (s *BookService) WithStore(st repo.Store) *BookService {
	c := *s
	c.Store = st
	return &c
}

type CreateBookInput struct {
	Title              string
	Author             string
	RegistrationNumber string
	Genre              entity.Genre
}

// UpdateBookInput carries a partial update; nil fields are left unchanged.
// Status is not writable here; it only moves through the loan engine.
type UpdateBookInput struct {
	Title              *string
	Author             *string
	RegistrationNumber *string
	Genre              *entity.Genre
}

func (s *BookService) IsAvailable(b *entity.Book) bool {
	return b.IsAvailable()
}

func (s *BookService) MarkBorrowed(ctx context.Context, bookID string) error {
	return s.Store.Books().UpdateStatus(ctx, bookID, entity.BookBorrowed)
}

func (s *BookService) MarkAvailable(ctx context.Context, bookID string) error {
	return s.Store.Books().UpdateStatus(ctx, bookID, entity.BookAvailable)
}

func (s *BookService) GetAllBooks(ctx context.Context) ([]*entity.Book, error) {
	return s.Store.Books().GetAll(ctx)
}

func (s *BookService) GetBookByID(ctx context.Context, id string) (*entity.Book, error) {
	return s.Store.Books().GetByID(ctx, id)
}

func (s *BookService) GetBooksByStatus(ctx context.Context, status entity.BookStatus) ([]*entity.Book, error) {
	return s.Store.Books().FindByCriteria(ctx, repo.Criteria{repo.Where("status", status)})
}

func (s *BookService) GetAvailableBooks(ctx context.Context) ([]*entity.Book, error) {
	return s.GetBooksByStatus(ctx, entity.BookAvailable)
}

func (s *BookService) GetBooksByGenre(ctx context.Context, genre entity.Genre) ([]*entity.Book, error) {
	return s.Store.Books().FindByCriteria(ctx, repo.Criteria{repo.Where("genre", genre)})
}

// FindBooks lists books filtered by the optional status and genre.
func (s *BookService) FindBooks(ctx context.Context, status *entity.BookStatus, genre *entity.Genre) ([]*entity.Book, error) {
	var c repo.Criteria
	if status != nil {
		c = append(c, repo.Where("status", *status))
	}
	if genre != nil {
		c = append(c, repo.Where("genre", *genre))
	}
	return s.Store.Books().FindByCriteria(ctx, c)
}

func (s *BookService) SearchBooks(ctx context.Context, term string) ([]*entity.Book, error) {
	return s.Store.Books().Search(ctx, strings.TrimSpace(term))
}

// IsRegistrationNumberTaken ignores exceptID so that updates can keep their own number.
func (s *BookService) IsRegistrationNumberTaken(ctx context.Context, number, exceptID string) (bool, error) {
	b, err := s.Store.Books().FindByRegistrationNumber(ctx, number)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return b.ID != exceptID, nil
}

func (s *BookService) CreateBook(ctx context.Context, in CreateBookInput) (*entity.Book, error) {
	taken, err := s.IsRegistrationNumberTaken(ctx, in.RegistrationNumber, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrRegistrationTaken
	}
	b := &entity.Book{
		Title:              in.Title,
		Author:             in.Author,
		RegistrationNumber: in.RegistrationNumber,
		Genre:              in.Genre,
		Status:             entity.BookAvailable,
	}
	if err := s.Store.Books().Create(ctx, b); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrRegistrationTaken
		}
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"book_id": b.ID, "registration_number": b.RegistrationNumber}).Info("book created")
	return b, nil
}

// UpdateBook locks the row so a concurrent borrow cannot be overwritten with a stale status.
func (s *BookService) UpdateBook(ctx context.Context, id string, in UpdateBookInput) (*entity.Book, error) {
	var out *entity.Book
	err := s.Store.InTx(ctx, func(tx repo.Store) error {
		b, err := tx.Books().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.RegistrationNumber != nil && *in.RegistrationNumber != b.RegistrationNumber {
			taken, err := s.WithStore(tx).IsRegistrationNumberTaken(ctx, *in.RegistrationNumber, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrRegistrationTaken
			}
			b.RegistrationNumber = *in.RegistrationNumber
		}
		if in.Title != nil {
			b.Title = *in.Title
		}
		if in.Author != nil {
			b.Author = *in.Author
		}
		if in.Genre != nil {
			b.Genre = *in.Genre
		}
		if err := tx.Books().Update(ctx, b); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrRegistrationTaken
			}
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBook refuses to remove a book that is out on loan.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	return s.Store.InTx(ctx, func(tx repo.Store) error {
		b, err := tx.Books().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !b.IsAvailable() {
			return ErrBookBorrowed
		}
		return tx.Books().Delete(ctx, id)
	})
}

// UploadCover stores the image in GCS and records its public URL on the book.
func (s *BookService) UploadCover(ctx context.Context, bookID string, r io.Reader, filename, contentType string) (*entity.Book, error) {
	if _, err := s.Store.Books().GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	url, err := s.uploadImageToGCS(ctx, bookID, r, filename, contentType)
	if err != nil {
		return nil, err
	}
	var out *entity.Book
	err = s.Store.InTx(ctx, func(tx repo.Store) error {
		b, err := tx.Books().GetByIDForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		b.CoverURL = url
		if err := tx.Books().Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BookService) uploadImageToGCS(ctx context.Context, bookID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrStorageNotReady
	}
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, helpers.CoverObjectPath(bookID, filename), contentType, r)
	if err != nil {
		s.Logger.WithError(err).WithField("book_id", bookID).Warn("cover upload failed")
		return "", fmt.Errorf("upload cover: %w", err)
	}
	return url, nil
}
