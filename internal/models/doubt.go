package models

import "time"

type DoubtStatus string

const (
	DoubtStatusOpen     DoubtStatus = "Open"
	DoubtStatusResolved DoubtStatus = "Resolved"
)

func (s DoubtStatus) IsValid() bool {
	return s == DoubtStatusOpen || s == DoubtStatusResolved
}

type Doubt struct {
	ID         string      `json:"id" gorm:"primaryKey;size:16"`
	Author     string      `json:"author" gorm:"not null;index"`
	Title      string      `json:"title"`
	Body       string      `json:"body" gorm:"type:text;not null"`
	Status     DoubtStatus `json:"status" gorm:"not null;default:'Open';index"`
	ResolvedBy string      `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Replies []Reply `json:"replies" gorm:"foreignKey:DoubtID;constraint:OnDelete:CASCADE"`
}

func (Doubt) TableName() string {
	return "doubts"
}

// Reply is one message in a doubt's thread. Replies are append-only.
type Reply struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	DoubtID   string    `json:"doubt_id" gorm:"not null;index;size:16"`
	Author    string    `json:"author" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reply) TableName() string {
	return "replies"
}

// LatestReply returns the most recent reply text, or "" when the thread is empty.
func (d *Doubt) LatestReply() string {
	var latest *Reply
	for i := range d.Replies {
		if latest == nil || !d.Replies[i].CreatedAt.Before(latest.CreatedAt) {
			latest = &d.Replies[i]
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Message
}
