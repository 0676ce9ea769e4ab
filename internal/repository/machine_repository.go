package repository

import (
	"context"
	"database/sql"

	"github.com/plantops/machinetrack/internal/model"
)

// MachineRepo owns the machines table.
type MachineRepo struct{ DB *sql.DB }

func NewMachineRepo(db *sql.DB) *MachineRepo { return &MachineRepo{DB: db} }

const machineCols = `id,line_id,name,COALESCE(asset_number,''),COALESCE(serial_number,''),
COALESCE(manufacturer,''),COALESCE(model,''),COALESCE(type,''),status,last_repair_date,
hours_since_last_repair,COALESCE(notes,''),is_active,created_at,updated_at`

func scanMachine(row interface{ Scan(...any) error }) (model.Machine, error) {
	var m model.Machine
	err := row.Scan(&m.ID, &m.LineID, &m.Name, &m.AssetNumber, &m.SerialNumber,
		&m.Manufacturer, &m.Model, &m.Type, &m.Status, &m.LastRepairDate,
		&m.HoursSinceLastRepair, &m.Notes, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a machine and returns its ID.
func (r *MachineRepo) Create(ctx context.Context, m model.Machine) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO machines (line_id, name, asset_number, serial_number, manufacturer, model, type, status, notes)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		m.LineID, m.Name, m.AssetNumber, m.SerialNumber, m.Manufacturer, m.Model, m.Type, m.Status, m.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByID fetches a single machine.
func (r *MachineRepo) GetByID(ctx context.Context, id uint64) (model.Machine, error) {
	return scanMachine(r.DB.QueryRowContext(ctx,
		"SELECT "+machineCols+" FROM machines WHERE id=? LIMIT 1", id))
}

// List returns machines, optionally filtered to one line.
func (r *MachineRepo) List(ctx context.Context, lineID uint64) ([]model.Machine, error) {
	q := "SELECT " + machineCols + " FROM machines"
	args := []any{}
	if lineID != 0 {
		q += " WHERE line_id=?"
		args = append(args, lineID)
	}
	q += " ORDER BY name"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Machine{}
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of a machine.
func (r *MachineRepo) Update(ctx context.Context, m model.Machine) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE machines SET line_id=?, name=?, asset_number=?, serial_number=?, manufacturer=?,
		 model=?, type=?, status=?, last_repair_date=?, hours_since_last_repair=?, notes=?
		 WHERE id=?`,
		m.LineID, m.Name, m.AssetNumber, m.SerialNumber, m.Manufacturer,
		m.Model, m.Type, m.Status, m.LastRepairDate, m.HoursSinceLastRepair, m.Notes, m.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete marks a machine inactive. Machines with repair history
// are never hard-deleted.
func (r *MachineRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE machines SET is_active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
