package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"todoctl/internal/service"
)

// Route names accepted by FakeServer.Fail.
const (
	RouteListTasks     = "listTasks"
	RouteCreateTask    = "createTask"
	RouteUpdateTask    = "updateTask"
	RouteDeleteTask    = "deleteTask"
	RouteToggleTask    = "toggleTask"
	RouteAddSubTask    = "addSubTask"
	RouteUpdateSubTask = "updateSubTask"
	RouteDeleteSubTask = "deleteSubTask"
)

const fakeServerAPIPrefix = "/api"

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyFrom(ctx context.Context) map[string]any {
	body, _ := ctx.Value(bodyKey{}).(map[string]any)
	return body
}

// Failure is an injected response. Status 200 produces an envelope with a
// non-success status; any other code is sent as an HTTP error.
type Failure struct {
	Status  int
	Message string
}

// Request is a recorded request to the fake server.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
	Auth   string
}

// FakeServer is an in-memory implementation of the task REST API.
type FakeServer struct {
	*httptest.Server

	// NumericIDs makes the server emit ids as JSON numbers.
	NumericIDs bool

	mu       sync.Mutex
	tasks    []service.Task
	seq      int
	failures map[string]Failure
	requests []Request
}

// NewFakeServer starts a fake server. Call Close when done.
func NewFakeServer() *FakeServer {
	s := &FakeServer{failures: make(map[string]Failure)}

	r := mux.NewRouter().UseEncodedPath()
	api := r.PathPrefix(fakeServerAPIPrefix).Subrouter()
	api.Use(s.record, s.inject)
	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet).Name(RouteListTasks)
	api.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost).Name(RouteCreateTask)
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPut).Name(RouteUpdateTask)
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete).Name(RouteDeleteTask)
	api.HandleFunc("/tasks/{id}/toggle-complete", s.toggleTask).Methods(http.MethodPost).Name(RouteToggleTask)
	api.HandleFunc("/tasks/{id}/subtasks", s.addSubTask).Methods(http.MethodPost).Name(RouteAddSubTask)
	api.HandleFunc("/tasks/{id}/subtasks/{subId}", s.updateSubTask).Methods(http.MethodPut).Name(RouteUpdateSubTask)
	api.HandleFunc("/tasks/{id}/subtasks/{subId}", s.deleteSubTask).Methods(http.MethodDelete).Name(RouteDeleteSubTask)

	s.Server = httptest.NewServer(r)
	return s
}

// APIURL returns the base path clients should use.
func (s *FakeServer) APIURL() string {
	return s.URL + fakeServerAPIPrefix
}

// Fail makes every request to route answer with f until Clear is called.
func (s *FakeServer) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = f
}

// Clear removes injected failures.
func (s *FakeServer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// Requests returns the recorded requests.
func (s *FakeServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Seed stores a task and returns its id.
func (s *FakeServer) Seed(text string, completed bool, subs ...service.SubTask) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := service.Task{ID: s.newID(), Text: text, Completed: completed, SubTasks: []service.SubTask{}}
	for _, st := range subs {
		st.ID = s.newID()
		t.SubTasks = append(t.SubTasks, st)
	}
	s.tasks = append(s.tasks, t)
	return t.ID
}

// Tasks returns a copy of the stored tasks.
func (s *FakeServer) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *FakeServer) newID() string {
	s.seq++
	if s.NumericIDs {
		return strconv.Itoa(s.seq)
	}
	return uuid.NewString()
}

func (s *FakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		r = r.WithContext(withBody(r.Context(), body))
		next.ServeHTTP(w, r)
	})
}

func (s *FakeServer) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.mu.Lock()
		f, ok := s.failures[name]
		s.mu.Unlock()
		if ok {
			writeEnvelope(w, f.Status, "Error", f.Message, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type wireSubTask struct {
	ID        any    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type wireTask struct {
	ID        any           `json:"id"`
	Text      string        `json:"text"`
	Completed bool          `json:"completed"`
	Deadline  *string       `json:"deadline"`
	SubTasks  []wireSubTask `json:"subtasks"`
}

func (s *FakeServer) wireID(id string) any {
	if s.NumericIDs {
		return json.Number(id)
	}
	return id
}

func (s *FakeServer) wireSub(st service.SubTask) wireSubTask {
	return wireSubTask{ID: s.wireID(st.ID), Text: st.Text, Completed: st.Completed}
}

func (s *FakeServer) wireTask(t service.Task) wireTask {
	w := wireTask{ID: s.wireID(t.ID), Text: t.Text, Completed: t.Completed, SubTasks: []wireSubTask{}}
	if t.Deadline != nil {
		d := service.FormatDeadline(*t.Deadline)
		w.Deadline = &d
	}
	for _, st := range t.SubTasks {
		w.SubTasks = append(w.SubTasks, s.wireSub(st))
	}
	return w
}

func writeEnvelope(w http.ResponseWriter, code int, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message, "data": data})
}

func notFound(w http.ResponseWriter, what string) {
	writeEnvelope(w, http.StatusNotFound, "Error", what+" not found", nil)
}

func (s *FakeServer) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *FakeServer) listTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]wireTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		data = append(data, s.wireTask(t))
	}
	writeEnvelope(w, http.StatusOK, "Success", "", data)
}

func (s *FakeServer) createTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	text, _ := body["text"].(string)
	if strings.TrimSpace(text) == "" {
		writeEnvelope(w, http.StatusUnprocessableEntity, "Error", "The text field is required.", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := service.Task{ID: s.newID(), Text: text, SubTasks: []service.SubTask{}}
	s.tasks = append(s.tasks, t)
	writeEnvelope(w, http.StatusCreated, "Success", "", s.wireTask(t))
}

func (s *FakeServer) updateTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	if text, ok := body["text"].(string); ok {
		s.tasks[i].Text = text
	}
	if raw, ok := body["deadline"].(string); ok {
		d, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeEnvelope(w, http.StatusUnprocessableEntity, "Error", "The deadline is not a valid date.", nil)
			return
		}
		d = d.UTC()
		s.tasks[i].Deadline = &d
	}
	writeEnvelope(w, http.StatusOK, "Success", "", s.wireTask(s.tasks[i]))
}

func (s *FakeServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	writeEnvelope(w, http.StatusOK, "Success", "Task deleted", nil)
}

func (s *FakeServer) toggleTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	writeEnvelope(w, http.StatusOK, "Success", "", s.wireTask(s.tasks[i]))
}

func (s *FakeServer) addSubTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(mux.Vars(r)["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	text, _ := body["text"].(string)
	done, _ := body["completed"].(bool)
	st := service.SubTask{ID: s.newID(), Text: text, Completed: done}
	s.tasks[i].SubTasks = append(s.tasks[i].SubTasks, st)
	writeEnvelope(w, http.StatusCreated, "Success", "", s.wireSub(st))
}

func (s *FakeServer) updateSubTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	i := s.indexOf(vars["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	_, j, ok := s.tasks[i].SubTask(vars["subId"])
	if !ok {
		notFound(w, "Sub-task")
		return
	}
	if done, ok := body["completed"].(bool); ok {
		s.tasks[i].SubTasks[j].Completed = done
	}
	writeEnvelope(w, http.StatusOK, "Success", "", s.wireSub(s.tasks[i].SubTasks[j]))
}

func (s *FakeServer) deleteSubTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	i := s.indexOf(vars["id"])
	if i < 0 {
		notFound(w, "Task")
		return
	}
	_, j, ok := s.tasks[i].SubTask(vars["subId"])
	if !ok {
		notFound(w, "Sub-task")
		return
	}
	subs := s.tasks[i].SubTasks
	s.tasks[i].SubTasks = append(subs[:j], subs[j+1:]...)
	writeEnvelope(w, http.StatusOK, "Success", "Sub-task deleted", nil)
}
