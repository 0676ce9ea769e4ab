package repository

import (
	"context"
	"database/sql"

	"github.com/plantops/machinetrack/internal/model"
)

// AuditRepo owns the audit_log table.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Insert appends one audit entry and returns its ID.
func (r *AuditRepo) Insert(ctx context.Context, e model.AuditLog) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_log (table_name, object_id, user_id, action, old_data, new_data)
		 VALUES (?,?,?,?,?,?)`,
		e.TableName, e.ObjectID, nullableID(e.UserID), e.Action,
		nullableJSON(e.OldData), nullableJSON(e.NewData))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// List returns audit entries newest first, optionally filtered by
// table name, with a bounded page size.
func (r *AuditRepo) List(ctx context.Context, tableName string, limit, offset int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,table_name,object_id,COALESCE(user_id,0),action,
	      COALESCE(old_data,''),COALESCE(new_data,''),timestamp FROM audit_log`
	args := []any{}
	if tableName != "" {
		q += " WHERE table_name=?"
		args = append(args, tableName)
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AuditLog{}
	for rows.Next() {
		var e model.AuditLog
		if err := rows.Scan(&e.ID, &e.TableName, &e.ObjectID, &e.UserID,
			&e.Action, &e.OldData, &e.NewData, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableJSON(s string) any {
	if s == "" {
		return nil
	}
	return s
}
