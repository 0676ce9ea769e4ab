package model

import "time"

// Audit actions recorded in the audit_log table.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// AuditLog is one row of the change history. OldData/NewData hold the
// JSON snapshots of the record before and after the change; either
// may be empty depending on the action.
type AuditLog struct {
	ID        uint64    // audit_log.id
	TableName string    // audit_log.table_name
	ObjectID  uint64    // audit_log.object_id
	UserID    uint64    // audit_log.user_id (0 when the actor is unknown)
	Action    string    // audit_log.action: create | update | delete
	OldData   string    // audit_log.old_data (JSON)
	NewData   string    // audit_log.new_data (JSON)
	Timestamp time.Time // audit_log.timestamp
}
