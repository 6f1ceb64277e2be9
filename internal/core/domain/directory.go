package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidName = errors.New("invalid entity name")
	ErrInvalidPath = errors.New("invalid domain path")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)

// Domain is a node in the directory hierarchy, addressed by its slash path.
// Removed marks soft deletion; removed rows stay readable for audit fidelity.
type Domain struct {
	ID        int64
	UUID      string
	Name      string
	Path      string
	Removed   *time.Time
	CreatedAt time.Time
}

// Account belongs to exactly one directory domain.
type Account struct {
	ID        int64
	UUID      string
	Name      string
	DomainID  int64
	Removed   *time.Time
	CreatedAt time.Time
}

// User belongs to exactly one account.
type User struct {
	ID        int64
	UUID      string
	Name      string
	AccountID int64
	Removed   *time.Time
	CreatedAt time.Time
}

func ValidateName(name string) error {
	if name == "" || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}
