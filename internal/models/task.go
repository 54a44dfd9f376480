package models

import (
	"math"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusSubmitted TaskStatus = "Submitted"
	TaskStatusCompleted TaskStatus = "Completed"
)

// TaskStatuses lists every status in lifecycle order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusSubmitted, TaskStatusCompleted}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusSubmitted, TaskStatusCompleted:
		return true
	}
	return false
}

// Next returns the only status a task may advance to from s.
func (s TaskStatus) Next() (TaskStatus, bool) {
	switch s {
	case TaskStatusPending:
		return TaskStatusSubmitted, true
	case TaskStatusSubmitted:
		return TaskStatusCompleted, true
	}
	return "", false
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities with High first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

type Task struct {
	ID              string     `json:"id" gorm:"primaryKey;size:16"`
	Title           string     `json:"title" gorm:"not null"`
	Description     string     `json:"description"`
	Assignee        string     `json:"assignee" gorm:"not null;index"`
	Priority        Priority   `json:"priority" gorm:"not null;default:'Medium'"`
	Points          int        `json:"points" gorm:"not null;default:0"`
	DueDate         time.Time  `json:"due_date"`
	AssignedDate    time.Time  `json:"assigned_date"`
	Status          TaskStatus `json:"status" gorm:"not null;default:'Pending';index"`
	SubmissionLink  string     `json:"submission_link,omitempty"`
	SubmissionNotes string     `json:"submission_notes,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	Verified        bool       `json:"verified"`
	VerifiedBy      string     `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// DaysLeft and Overdue are derived from DueDate when the task is read.
	DaysLeft int  `json:"days_left" gorm:"-"`
	Overdue  bool `json:"overdue" gorm:"-"`
}

// SetDeadline fills DaysLeft and Overdue relative to now. Partial days round
// down, so a task due later today has zero days left and one due earlier
// today is overdue by a day.
func (t *Task) SetDeadline(now time.Time) {
	t.DaysLeft = int(math.Floor(t.DueDate.Sub(now).Hours() / 24))
	t.Overdue = t.DaysLeft < 0
}

func (Task) TableName() string {
	return "tasks"
}
