package entity

import (
	"fmt"
	"time"
)

// BookStatus is the availability of a single physical book.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
)

// BookStatuses lists every valid BookStatus in declaration order.
var BookStatuses = []BookStatus{BookAvailable, BookBorrowed}

func (s BookStatus) Valid() bool {
	switch s {
	case BookAvailable, BookBorrowed:
		return true
	default:
		return false
	}
}

func (s BookStatus) String() string { return string(s) }

// ParseBookStatus accepts only the exact lowercase values.
func ParseBookStatus(v string) (BookStatus, error) {
	s := BookStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: book status %q", ErrUnknownValue, v)
	}
	return s, nil
}

type Genre string

const (
	GenreFiction        Genre = "Fiction"
	GenreRomance        Genre = "Romance"
	GenreFantasy        Genre = "Fantasy"
	GenreAdventure      Genre = "Adventure"
	GenreScienceFiction Genre = "Science Fiction"
	GenreHorror         Genre = "Horror"
	GenreBiography      Genre = "Biography"
	GenreHistory        Genre = "History"
	GenreScience        Genre = "Science"
	GenreMystery        Genre = "Mystery"
	GenreThriller       Genre = "Thriller"
	GenreOther          Genre = "Other"
)

var Genres = []Genre{
	GenreFiction, GenreRomance, GenreFantasy, GenreAdventure, GenreScienceFiction, GenreHorror,
	GenreBiography, GenreHistory, GenreScience, GenreMystery, GenreThriller, GenreOther,
}

func (g Genre) Valid() bool {
	switch g {
	case GenreFiction, GenreRomance, GenreFantasy, GenreAdventure, GenreScienceFiction, GenreHorror,
		GenreBiography, GenreHistory, GenreScience, GenreMystery, GenreThriller, GenreOther:
		return true
	default:
		return false
	}
}

func (g Genre) String() string { return string(g) }

// ParseGenre is case sensitive so that stored values round-trip unchanged.
func ParseGenre(v string) (Genre, error) {
	g := Genre(v)
	if !g.Valid() {
		return "", fmt.Errorf("%w: genre %q", ErrUnknownValue, v)
	}
	return g, nil
}

type Book struct {
	ID                 string
	Title              string
	Author             string
	RegistrationNumber string
	Genre              Genre
	Status             BookStatus
	CoverURL           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsAvailable reports whether the book can be lent right now.
func (b *Book) IsAvailable() bool {
	return b != nil && b.Status == BookAvailable
}
