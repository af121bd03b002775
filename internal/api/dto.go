package api

import (
	"github.com/starford/taskview/internal/models"
	"github.com/starford/taskview/internal/taskservice"
)

// CreateTaskRequest is the request body for creating a task.
type CreateTaskRequest struct {
	Title    string   `json:"title" example:"Buy milk" validate:"required"`
	Desc     string   `json:"desc" example:"2 litres"`
	Priority string   `json:"priority" example:"medium"`
	Due      string   `json:"due" example:"2024-05-01"`
	Tags     []string `json:"tags" example:"home,errands"`
}

// toNewTask converts the request into the API payload. An empty due date
// means no due date.
func (r CreateTaskRequest) toNewTask() (models.NewTask, error) {
	t := models.NewTask{
		Title:    r.Title,
		Desc:     r.Desc,
		Priority: models.Priority(r.Priority),
		Tags:     r.Tags,
	}
	if r.Due != "" {
		d, err := models.ParseDate(r.Due)
		if err != nil {
			return models.NewTask{}, err
		}
		t.Due = d
	}
	return t, nil
}

// UpdateTaskRequest is the request body for a partial task update.
type UpdateTaskRequest = models.TaskPatch

// BoardResponse is the annotated task list returned by GET /tasks.
type BoardResponse = taskservice.Board

// MutationResponse is returned by the mutating routes once the task API has
// accepted the write. Board is null when the view could not be reloaded
// afterwards, and Warning carries the reload error.
type MutationResponse struct {
	OK      bool               `json:"ok" example:"true"`
	Board   *taskservice.Board `json:"board"`
	Warning string             `json:"warning,omitempty"`
}

func newMutationResponse(res *taskservice.Result) MutationResponse {
	out := MutationResponse{OK: true, Board: res.Board}
	if res.RefreshErr != nil {
		out.Warning = "task list reload failed: " + res.RefreshErr.Error()
	}
	return out
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
	Error  string `json:"error,omitempty"`
}
