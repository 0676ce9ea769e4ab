package model

import (
	"database/sql"
	"time"
)

// Status values for lines, machines and repairs. Stored as plain
// strings in MySQL ENUM columns.
const (
	LineStatusWorking     = "working"
	LineStatusMaintenance = "maintenance"
	LineStatusStopped     = "stopped"

	MachineStatusOperational = "operational"
	MachineStatusBroken      = "broken"
	MachineStatusMaintenance = "maintenance"

	RepairTypeScheduled   = "scheduled"
	RepairTypeUnscheduled = "unscheduled"

	RepairStatusOpen       = "open"
	RepairStatusInProgress = "in_progress"
	RepairStatusClosed     = "closed"
)

// Line is a production line containing many machines.
type Line struct {
	ID          uint64    // lines.id
	Code        string    // lines.code (unique)
	Name        string    // lines.name
	Description string    // lines.description
	Status      string    // lines.status: working | maintenance | stopped
	IsActive    bool      // lines.is_active (soft delete flag)
	Notes       string    // lines.notes
	CreatedAt   time.Time // lines.created_at
	UpdatedAt   time.Time // lines.updated_at
}

// Machine is a single unit of equipment assigned to a line.
type Machine struct {
	ID                   uint64       // machines.id
	LineID               uint64       // machines.line_id
	Name                 string       // machines.name
	AssetNumber          string       // machines.asset_number
	SerialNumber         string       // machines.serial_number
	Manufacturer         string       // machines.manufacturer
	Model                string       // machines.model
	Type                 string       // machines.type
	Status               string       // machines.status: operational | broken | maintenance
	LastRepairDate       sql.NullTime // machines.last_repair_date
	HoursSinceLastRepair int          // machines.hours_since_last_repair
	Notes                string       // machines.notes
	IsActive             bool         // machines.is_active
	CreatedAt            time.Time    // machines.created_at
	UpdatedAt            time.Time    // machines.updated_at
}

// Repair is a maintenance record for a machine.
type Repair struct {
	ID            uint64          // repairs.id
	MachineID     uint64          // repairs.machine_id
	AssetNumber   string          // repairs.asset_number (denormalized for search)
	StartDate     time.Time       // repairs.start_date
	EndDate       sql.NullTime    // repairs.end_date
	Description   string          // repairs.description
	ActionsTaken  string          // repairs.actions_taken
	PerformedBy   sql.NullInt64   // repairs.performed_by (users.id)
	CreatedBy     uint64          // repairs.created_by (users.id)
	UpdatedBy     sql.NullInt64   // repairs.updated_by (users.id)
	RepairType    string          // repairs.repair_type: scheduled | unscheduled
	Status        string          // repairs.status: open | in_progress | closed
	Cost          sql.NullFloat64 // repairs.cost
	PartsUsed     string          // repairs.parts_used
	DowntimeHours sql.NullFloat64 // repairs.downtime_hours
	CreatedAt     time.Time       // repairs.created_at
	UpdatedAt     time.Time       // repairs.updated_at
}

// RepairAttachment stores metadata about a file attached to a repair
// record. The file body lives on disk or object storage; only the
// path and descriptive metadata are kept in the database.
type RepairAttachment struct {
	ID           uint64        // repair_attachments.id
	RepairID     uint64        // repair_attachments.repair_id
	OriginalName string        // repair_attachments.original_name
	FilePath     string        // repair_attachments.file_path
	MimeType     string        // repair_attachments.mime_type
	SizeBytes    int64         // repair_attachments.size_bytes
	UploadedBy   sql.NullInt64 // repair_attachments.uploaded_by (users.id)
	CreatedAt    time.Time     // repair_attachments.created_at
}
