package model

import "time"

// User represents an application user record as stored in the
// `users` table. The json tags are omitted because these structs are
// used internally by the repository layer; handlers define separate
// response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active. Inactive users must
//                 never resolve to a valid session.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
}

// Role represents a row in the `roles` table. Roles are named
// permission bundles (e.g. "Admin", "Technician") attached to users
// through the user_roles link table.
type Role struct {
	ID          uint64 // roles.id
	Name        string // roles.name (unique)
	Description string // roles.description
}

// Permission represents a row in the `permissions` table. A
// permission is an atomic capability code (e.g. "manage_users")
// granted to users transitively through their roles via the
// role_permissions link table.
type Permission struct {
	ID          uint64 // permissions.id
	Code        string // permissions.code (unique)
	Description string // permissions.description
}
