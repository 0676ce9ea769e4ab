// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// AuditQueueName is the durable queue carrying audit trail events.
const AuditQueueName = "audit.recorded"

// AuditRecordedEvent is published whenever a tracked entity is
// created, updated or deleted. It carries enough information for
// downstream consumers to log or alert without querying the primary
// database.
type AuditRecordedEvent struct {
	AuditID   uint64 `json:"audit_id"`
	TableName string `json:"table_name"`
	ObjectID  uint64 `json:"object_id"`
	UserID    uint64 `json:"user_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}
