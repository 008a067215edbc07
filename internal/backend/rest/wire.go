package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"todoctl/internal/service"
)

const statusSuccess = "Success"

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// flexID accepts string and numeric ids.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexID(n.String())
	return nil
}

// flexBool accepts true/false as well as 0/1.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", b)
	}
	return nil
}

type apiSubTask struct {
	ID        flexID   `json:"id"`
	Text      string   `json:"text"`
	Completed flexBool `json:"completed"`
}

type apiTask struct {
	ID        flexID       `json:"id"`
	Text      string       `json:"text"`
	Completed flexBool     `json:"completed"`
	Deadline  *string      `json:"deadline"`
	SubTasks  []apiSubTask `json:"subtasks"`
}

type createTaskRequest struct {
	Text     string  `json:"text"`
	Deadline *string `json:"deadline"`
}

type updateTextRequest struct {
	Text string `json:"text"`
}

type updateDeadlineRequest struct {
	Deadline string `json:"deadline"`
}

type addSubTaskRequest struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type updateSubTaskRequest struct {
	Completed bool `json:"completed"`
}

// deadlineLayouts are tried in order; zone-less forms are UTC.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseWireDeadline(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, *s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid deadline %q", *s)
}

func (st apiSubTask) toService() (service.SubTask, error) {
	if st.ID == "" {
		return service.SubTask{}, fmt.Errorf("sub-task without id")
	}
	return service.SubTask{
		ID:        string(st.ID),
		Text:      st.Text,
		Completed: bool(st.Completed),
	}, nil
}

func (t apiTask) toService() (service.Task, error) {
	if t.ID == "" {
		return service.Task{}, fmt.Errorf("task without id")
	}
	deadline, err := parseWireDeadline(t.Deadline)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	subs := make([]service.SubTask, 0, len(t.SubTasks))
	for _, st := range t.SubTasks {
		s, err := st.toService()
		if err != nil {
			return service.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		subs = append(subs, s)
	}
	return service.Task{
		ID:        string(t.ID),
		Text:      t.Text,
		Completed: bool(t.Completed),
		Deadline:  deadline,
		SubTasks:  subs,
	}, nil
}
