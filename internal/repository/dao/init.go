package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&Registration{},
	)
}

// isUniqueViolation reports whether err is a unique-constraint violation
// involving the given column. Postgres errors carry the constraint name;
// sqlite (used by the test suites) spells out the column in the message.
func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return strings.Contains(pgErr.ConstraintName, column) ||
			strings.Contains(pgErr.Message, column)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return strings.Contains(err.Error(), column)
	}

	return false
}
