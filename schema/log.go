// Package schema describes the document structure of the FlexMon log index.
// Log-query rules aggregate over these fields; the dev scripts use the same
// struct when seeding data.
package schema

import "time"

// LogEntry is one document in the "flexmon-logs" index.
type LogEntry struct {
	Timestamp time.Time `json:"@timestamp"`
	TenantID  string    `json:"tenant_id"`
	Host      string    `json:"host"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
}
