package models

import "time"

// AuditLogEntry is one append-only audit record. No UPDATE or DELETE
// is ever issued against audit rows.
type AuditLogEntry struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Operation string    `json:"operation" db:"operation"`
	Resource  string    `json:"resource" db:"resource"`
	Username  string    `json:"user" db:"username"`
	Success   bool      `json:"success" db:"success"`
	Details   string    `json:"details,omitempty" db:"details"` // JSON blob
}

// AuditLogFilter narrows an audit log listing. Zero values match
// everything; Success uses a pointer so "filter by false" works.
type AuditLogFilter struct {
	Operation string
	Username  string
	Resource  string
	Success   *bool
	Limit     int
}
