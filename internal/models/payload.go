package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NewTask is the create payload sent to the task API.
type NewTask struct {
	Title    string   `json:"title"`
	Desc     string   `json:"desc"`
	Priority Priority `json:"priority,omitempty"`
	Due      Date     `json:"due"`
	Tags     []string `json:"tags"`
}

// Normalize trims user input in place and guarantees a non-nil tag list.
func (n *NewTask) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Desc = strings.TrimSpace(n.Desc)
	n.Priority = Priority(strings.TrimSpace(string(n.Priority)))
	tags := []string{}
	for _, t := range n.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	n.Tags = tags
}

// Validate validates the create payload.
func (n NewTask) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required.Error("title is required")),
		validation.Field(&n.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh)),
		validation.Field(&n.Tags, validation.Each(validation.Required)),
	)
}

// TaskPatch is the partial update payload. Only non-empty fields are sent.
type TaskPatch struct {
	Title    string   `json:"title,omitempty"`
	Desc     string   `json:"desc,omitempty"`
	Status   Status   `json:"status,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Due      string   `json:"due,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == "" && p.Desc == "" && p.Status == "" && p.Priority == "" && p.Due == "" && len(p.Tags) == 0
}

// Validate validates the update payload.
func (p TaskPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Status, validation.In(StatusTodo, StatusDoing, StatusBlocked, StatusDone)),
		validation.Field(&p.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh)),
		validation.Field(&p.Due, validation.Date(DateLayout)),
		validation.Field(&p.Tags, validation.Each(validation.Required)),
	)
}
