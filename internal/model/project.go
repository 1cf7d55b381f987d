package model

import (
	"strings"
	"time"
)

// Validation messages shared by projects and tasks.
const (
	MsgTitleBlank = "Title can't be blank"
)

// Project groups tasks under a single owner.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	OwnerID     string        `json:"owner_id"`
	Tasks       []TaskSummary `json:"tasks"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate returns field-level messages for an invalid project.
func (p *Project) Validate() []string {
	var msgs []string
	if strings.TrimSpace(p.Title) == "" {
		msgs = append(msgs, MsgTitleBlank)
	}
	return msgs
}
