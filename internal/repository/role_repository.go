package repository

import (
	"context"
	"database/sql"

	"github.com/plantops/machinetrack/internal/model"
)

// RoleRepo manages roles, permissions and their many-to-many links.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// EnsureRole inserts the role if absent and returns its id either way.
func (r *RoleRepo) EnsureRole(ctx context.Context, name, description string) (uint64, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO roles (name, description) VALUES (?,?)",
		name, description)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&id)
	return id, err
}

// EnsurePermission inserts the permission if absent and returns its id.
func (r *RoleRepo) EnsurePermission(ctx context.Context, code, description string) (uint64, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO permissions (code, description) VALUES (?,?)",
		code, description)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT id FROM permissions WHERE code=? LIMIT 1", code).Scan(&id)
	return id, err
}

// GetRoleByName fetches a role by its unique name.
func (r *RoleRepo) GetRoleByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,COALESCE(description,'') FROM roles WHERE name=? LIMIT 1",
		name).Scan(&role.ID, &role.Name, &role.Description)
	return role, err
}

// ListRoles returns all roles ordered by name.
func (r *RoleRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,COALESCE(description,'') FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// AssignRole links a user to a role. Idempotent.
func (r *RoleRepo) AssignRole(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO user_roles (user_id, role_id) VALUES (?,?)",
		userID, roleID)
	return err
}

// RemoveRole unlinks a user from a role.
func (r *RoleRepo) RemoveRole(ctx context.Context, userID, roleID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_roles WHERE user_id=? AND role_id=?",
		userID, roleID)
	return err
}

// GrantPermission links a permission to a role. Idempotent.
func (r *RoleRepo) GrantPermission(ctx context.Context, roleID, permissionID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO role_permissions (role_id, permission_id) VALUES (?,?)",
		roleID, permissionID)
	return err
}
