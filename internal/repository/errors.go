// Package repository defines the MySQL data access layer.  Every domain
// query takes the caller's owner id and filters by it; a row that belongs
// to another owner is reported exactly like a missing row.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches, including rows owned by a
// different tenant.  Handlers translate it into a 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness rule,
// such as a duplicate member email within a gym or a second open check-in.
// Handlers translate it into a 409.
var ErrConflict = errors.New("conflict")

// ErrOpenCheckout is returned when deleting a member whose gateway
// checkout has not reached a terminal status.
var ErrOpenCheckout = errors.New("member has a checkout in progress")

// ErrEmailExists is returned when registering an owner email that is taken.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique index violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
