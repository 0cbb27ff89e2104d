package upload

import (
	"github.com/google/uuid"
)

// Status describes the lifecycle state of one upload task.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

var validStatuses = []Status{StatusUploading, StatusSuccess, StatusError}

// String returns the literal string for the status.
func (s Status) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	for _, candidate := range validStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the task has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Task is the transient, client-only record of one file moving through the
// upload protocol. It is never persisted; a retry discards the failed task
// and starts a fresh one for the same source.
type Task struct {
	ID       uuid.UUID
	FileName string
	Size     int64
	Progress int
	Status   Status
	Message  string
	Key      string

	src Source
}
