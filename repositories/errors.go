package repositories

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned in place of gorm.ErrRecordNotFound.
	ErrNotFound = errors.New("record not found")
	// ErrUserEmailExists is returned when the users email unique index rejects an insert.
	ErrUserEmailExists = errors.New("user email already exists")
	// ErrLocationExists is returned when a location with the same external place id exists.
	ErrLocationExists = errors.New("location with this external place id already exists")
)

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
