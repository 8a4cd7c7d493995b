package domain

import (
	"fmt"
	"strings"
	"time"
)

// RecordType classifies an activity record.
type RecordType string

const (
	RecordTypeWorkout  RecordType = "WORKOUT"
	RecordTypeWork     RecordType = "WORK"
	RecordTypeSleep    RecordType = "SLEEP"
	RecordTypeFreetime RecordType = "FREETIME"
)

// RecordTypes lists every valid record type in schema order.
var RecordTypes = []RecordType{RecordTypeWorkout, RecordTypeWork, RecordTypeSleep, RecordTypeFreetime}

// ParseRecordType accepts any casing and surrounding whitespace.
func ParseRecordType(raw string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown record type %q", raw)
	}
	return t, nil
}

// Valid reports whether t is one of RecordTypes.
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeWorkout, RecordTypeWork, RecordTypeSleep, RecordTypeFreetime:
		return true
	}
	return false
}

// Record is a timestamped activity. It is open until End is set.
type Record struct {
	ID        string
	UserID    string
	Type      RecordType
	Start     time.Time
	End       *time.Time
	Done      bool
	CreatedAt time.Time
}

// Open reports whether the record has not been closed yet.
func (r *Record) Open() bool {
	return !r.Done && r.End == nil
}
