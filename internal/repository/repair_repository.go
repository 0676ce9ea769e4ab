package repository

import (
	"context"
	"database/sql"

	"github.com/plantops/machinetrack/internal/model"
)

// RepairRepo owns the repairs and repair_attachments tables.
type RepairRepo struct{ DB *sql.DB }

func NewRepairRepo(db *sql.DB) *RepairRepo { return &RepairRepo{DB: db} }

const repairCols = `id,machine_id,COALESCE(asset_number,''),start_date,end_date,
COALESCE(description,''),COALESCE(actions_taken,''),performed_by,created_by,updated_by,
repair_type,status,cost,COALESCE(parts_used,''),downtime_hours,created_at,updated_at`

func scanRepair(row interface{ Scan(...any) error }) (model.Repair, error) {
	var rp model.Repair
	err := row.Scan(&rp.ID, &rp.MachineID, &rp.AssetNumber, &rp.StartDate, &rp.EndDate,
		&rp.Description, &rp.ActionsTaken, &rp.PerformedBy, &rp.CreatedBy, &rp.UpdatedBy,
		&rp.RepairType, &rp.Status, &rp.Cost, &rp.PartsUsed, &rp.DowntimeHours,
		&rp.CreatedAt, &rp.UpdatedAt)
	return rp, err
}

// Create inserts a repair record and returns its ID.
func (r *RepairRepo) Create(ctx context.Context, rp model.Repair) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO repairs (machine_id, asset_number, start_date, end_date, description,
		 actions_taken, performed_by, created_by, repair_type, status, cost, parts_used, downtime_hours)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rp.MachineID, rp.AssetNumber, rp.StartDate, rp.EndDate, rp.Description,
		rp.ActionsTaken, rp.PerformedBy, rp.CreatedBy, rp.RepairType, rp.Status,
		rp.Cost, rp.PartsUsed, rp.DowntimeHours)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByID fetches a single repair record.
func (r *RepairRepo) GetByID(ctx context.Context, id uint64) (model.Repair, error) {
	return scanRepair(r.DB.QueryRowContext(ctx,
		"SELECT "+repairCols+" FROM repairs WHERE id=? LIMIT 1", id))
}

// List returns repairs, optionally filtered to one machine, newest first.
func (r *RepairRepo) List(ctx context.Context, machineID uint64) ([]model.Repair, error) {
	q := "SELECT " + repairCols + " FROM repairs"
	args := []any{}
	if machineID != 0 {
		q += " WHERE machine_id=?"
		args = append(args, machineID)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Repair{}
	for rows.Next() {
		rp, err := scanRepair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a repair record.
func (r *RepairRepo) Update(ctx context.Context, rp model.Repair) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE repairs SET end_date=?, description=?, actions_taken=?, performed_by=?,
		 updated_by=?, repair_type=?, status=?, cost=?, parts_used=?, downtime_hours=?
		 WHERE id=?`,
		rp.EndDate, rp.Description, rp.ActionsTaken, rp.PerformedBy,
		rp.UpdatedBy, rp.RepairType, rp.Status, rp.Cost, rp.PartsUsed, rp.DowntimeHours, rp.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AddAttachment inserts an attachment metadata row and returns its ID.
func (r *RepairRepo) AddAttachment(ctx context.Context, a model.RepairAttachment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO repair_attachments (repair_id, original_name, file_path, mime_type, size_bytes, uploaded_by)
		 VALUES (?,?,?,?,?,?)`,
		a.RepairID, a.OriginalName, a.FilePath, a.MimeType, a.SizeBytes, a.UploadedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// ListAttachments returns attachment metadata for a repair.
func (r *RepairRepo) ListAttachments(ctx context.Context, repairID uint64) ([]model.RepairAttachment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,repair_id,original_name,file_path,COALESCE(mime_type,''),COALESCE(size_bytes,0),uploaded_by,created_at
		 FROM repair_attachments WHERE repair_id=? ORDER BY id`, repairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RepairAttachment{}
	for rows.Next() {
		var a model.RepairAttachment
		if err := rows.Scan(&a.ID, &a.RepairID, &a.OriginalName, &a.FilePath,
			&a.MimeType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAttachment removes an attachment metadata row.
func (r *RepairRepo) DeleteAttachment(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM repair_attachments WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
