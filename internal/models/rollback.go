package models

import "time"

// RollbackSnapshot stores the document that was live immediately
// before a successful apply. Its key is the opaque rollback token
// returned to the caller in ApplyResult.
type RollbackSnapshot struct {
	Key          string    `json:"key" db:"key"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	Namespace    string    `json:"namespace" db:"namespace"`
	Name         string    `json:"name" db:"name"`
	Config       string    `json:"config" db:"config"` // JSON document
	Username     string    `json:"user" db:"username"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
