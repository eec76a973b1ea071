// Package steplog accumulates the ordered audit trail for a single
// checkout attempt. A Log is owned by one orchestration call and is
// not safe for concurrent use.
package steplog

import (
	"time"

	"github.com/smartshop/checkout/internal/models"
)

// Log is an append-only sequence of step records
type Log struct {
	records []models.StepRecord
}

// New creates an empty step log
func New() *Log {
	return &Log{}
}

// Append adds one record with the current timestamp
func (l *Log) Append(name, status, message string) {
	l.records = append(l.records, models.StepRecord{
		Name:      name,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Records returns the records in append order. The returned slice is a
// copy; existing records cannot be mutated through it.
func (l *Log) Records() []models.StepRecord {
	out := make([]models.StepRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of appended records
func (l *Log) Len() int {
	return len(l.records)
}
