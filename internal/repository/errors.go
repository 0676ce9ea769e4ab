// Package repository implements plain-SQL data access over MySQL.
// Sentinel errors defined here let handlers map failure scenarios to
// HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when inserting a user whose email is
// already taken. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent records, such as removing a machine that still
// has repair records. Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")
