package model

import (
	"time"
)

// Issue is a problem report raised against the property.
type Issue struct {
	IssueID     uint64    `json:"issueID"`
	Description string    `json:"description"`
	CreateAt    time.Time `json:"createAt"`
	Status      string    `json:"status"`
	Image       string    `json:"image"`
	UpdateAt    time.Time `json:"updateAt"`
}

type CreateIssueParam struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Image       *string `json:"image"`
}

func (p *CreateIssueParam) Validate() error {
	return firstError(
		requireString("description", p.Description),
		requireString("status", p.Status),
		requireString("image", p.Image),
	)
}

// Issue builds the record to be stored under the given id, stamped with now.
func (p *CreateIssueParam) Issue(id uint64, now time.Time) *Issue {
	return &Issue{
		IssueID:     id,
		Description: *p.Description,
		CreateAt:    now,
		Status:      *p.Status,
		Image:       *p.Image,
		UpdateAt:    now,
	}
}

// UpdateIssueParam holds the fields to change. Nil fields are left untouched.
type UpdateIssueParam struct {
	IssueID     uint64  `json:"-"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Image       *string `json:"image"`
}

func (p *UpdateIssueParam) Validate() error {
	return firstError(
		optionalString("description", p.Description),
		optionalString("status", p.Status),
		optionalString("image", p.Image),
	)
}

// Apply updates i and restamps its update time.
func (p *UpdateIssueParam) Apply(i *Issue, now time.Time) {
	set(&i.Description, p.Description)
	set(&i.Status, p.Status)
	set(&i.Image, p.Image)
	i.UpdateAt = now
}
