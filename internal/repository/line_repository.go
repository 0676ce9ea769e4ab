package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/plantops/machinetrack/internal/model"
)

// LineRepo owns the lines table.
type LineRepo struct{ DB *sql.DB }

func NewLineRepo(db *sql.DB) *LineRepo { return &LineRepo{DB: db} }

const lineCols = "id,code,name,COALESCE(description,''),status,is_active,COALESCE(notes,''),created_at,updated_at"

func scanLine(row interface{ Scan(...any) error }) (model.Line, error) {
	var l model.Line
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.Description, &l.Status,
		&l.IsActive, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create inserts a line and returns its ID. Duplicate codes surface
// as ErrConflict.
func (r *LineRepo) Create(ctx context.Context, l model.Line) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lines (code, name, description, status, notes) VALUES (?,?,?,?,?)",
		l.Code, l.Name, l.Description, l.Status, l.Notes)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByID fetches a single line.
func (r *LineRepo) GetByID(ctx context.Context, id uint64) (model.Line, error) {
	return scanLine(r.DB.QueryRowContext(ctx,
		"SELECT "+lineCols+" FROM lines WHERE id=? LIMIT 1", id))
}

// List returns lines, optionally only active ones.
func (r *LineRepo) List(ctx context.Context, activeOnly bool) ([]model.Line, error) {
	q := "SELECT " + lineCols + " FROM lines"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY code"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Line{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a line.
func (r *LineRepo) Update(ctx context.Context, l model.Line) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lines SET name=?, description=?, status=?, notes=? WHERE id=?",
		l.Name, l.Description, l.Status, l.Notes, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete marks a line inactive rather than removing the row, so
// machines and repair history keep a valid parent.
func (r *LineRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE lines SET is_active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
