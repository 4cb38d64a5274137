package entity

import (
	"time"
)

// User is a borrower. Password holds a bcrypt hash and is never rendered.
type User struct {
	ID                 string
	Name               string
	Email              string
	RegistrationNumber string
	Password           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
