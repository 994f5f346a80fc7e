package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	err error

	tasks      map[int64]models.Task
	nextID     int64
	lastFilter models.TaskFilter
	lastPatch  models.TaskPatch
}

func newMockTaskService() *MockTaskService {
	return &MockTaskService{tasks: make(map[int64]models.Task), nextID: 1}
}

func (m *MockTaskService) CreateTask(_ context.Context, in models.TaskCreate) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	task := in.NewTask(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = task
	return &task, nil
}

func (m *MockTaskService) GetTaskByID(_ context.Context, id int64) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	return &task, nil
}

func (m *MockTaskService) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastFilter = filter
	tasks := make([]models.Task, 0, len(m.tasks))
	for id := int64(1); id < m.nextID; id++ {
		if task, ok := m.tasks[id]; ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *MockTaskService) UpdateTask(_ context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastPatch = patch
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	patch.ApplyTo(&task)
	m.tasks[id] = task
	return &task, nil
}

func (m *MockTaskService) DeleteTask(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.tasks[id]; !ok {
		return errs.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func setupTaskHandler() (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := newMockTaskService()
	handler := handlers.NewTaskHandler(mockService, nil)

	router := gin.New()
	router.POST("/tasks", handler.CreateTask)
	router.GET("/tasks", handler.GetTasks)
	router.GET("/tasks/:id", handler.GetTaskByID)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.PATCH("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)

	return mockService, router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTask(t *testing.T) {
	_, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", `{"title":"Buy groceries","priority":1}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, "Buy groceries", task.Title)
	assert.Equal(t, 1, task.Priority)
	assert.False(t, task.IsCompleted)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"id", "title", "description", "is_completed", "priority", "due_date", "created_at", "updated_at"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["description"])
}

func TestCreateTaskInvalid(t *testing.T) {
	_, router := setupTaskHandler()

	for name, body := range map[string]string{
		"invalid json":  "invalid json",
		"missing title": `{"priority":2}`,
		"blank title":   `{"title":"   "}`,
		"wrong type":    `{"title":"x","priority":"high"}`,
		"empty body":    "",
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(router, "POST", "/tasks", body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), `"detail"`)
		})
	}
}

func TestGetTasks(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(router, "GET", "/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
	assert.Equal(t, models.DefaultListLimit, mockService.lastFilter.Limit)

	doJSON(router, "POST", "/tasks", `{"title":"one"}`)
	w = doJSON(router, "GET", "/tasks?q=on&is_completed=false&min_priority=2&limit=10&offset=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	filter := mockService.lastFilter
	require.NotNil(t, filter.Query)
	assert.Equal(t, "on", *filter.Query)
	require.NotNil(t, filter.IsCompleted)
	assert.False(t, *filter.IsCompleted)
	require.NotNil(t, filter.MinPriority)
	assert.Equal(t, 2, *filter.MinPriority)
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 5, filter.Offset)
}

func TestGetTasksInvalidQuery(t *testing.T) {
	_, router := setupTaskHandler()

	for _, query := range []string{
		"limit=0",
		"limit=101",
		"limit=ten",
		"offset=-1",
		"min_priority=-1",
		"min_priority=high",
		"is_completed=maybe",
	} {
		t.Run(query, func(t *testing.T) {
			w := doJSON(router, "GET", "/tasks?"+query, "")
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestGetTaskByID(t *testing.T) {
	_, router := setupTaskHandler()
	doJSON(router, "POST", "/tasks", `{"title":"find me"}`)

	w := doJSON(router, "GET", "/tasks/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "find me")

	w = doJSON(router, "GET", "/tasks/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Task not found"}`, w.Body.String())

	w = doJSON(router, "GET", "/tasks/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateTask(t *testing.T) {
	mockService, router := setupTaskHandler()
	doJSON(router, "POST", "/tasks", `{"title":"Buy groceries","priority":1,"description":"milk"}`)

	w := doJSON(router, "PUT", "/tasks/1", `{"title":"Buy groceries and fruit","description":null}`)
	require.Equal(t, http.StatusOK, w.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, "Buy groceries and fruit", task.Title)
	assert.Equal(t, 1, task.Priority)
	assert.Nil(t, task.Description)

	assert.True(t, mockService.lastPatch.Description.Set)
	assert.True(t, mockService.lastPatch.Description.Null)
	assert.False(t, mockService.lastPatch.Priority.Set)

	w = doJSON(router, "PATCH", "/tasks/1", `{"is_completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_completed":true`)
}

func TestUpdateTaskErrors(t *testing.T) {
	_, router := setupTaskHandler()
	doJSON(router, "POST", "/tasks", `{"title":"keep"}`)

	assert.Equal(t, http.StatusNotFound, doJSON(router, "PUT", "/tasks/42", `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(router, "PUT", "/tasks/1", `{"title":""}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(router, "PUT", "/tasks/1", `{"title":null}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(router, "PUT", "/tasks/1", `not json`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(router, "PUT", "/tasks/x", `{"title":"x"}`).Code)

	w := doJSON(router, "GET", "/tasks/1", "")
	assert.Contains(t, w.Body.String(), `"title":"keep"`)
}

func TestDeleteTask(t *testing.T) {
	_, router := setupTaskHandler()
	doJSON(router, "POST", "/tasks", `{"title":"temporary"}`)

	w := doJSON(router, "DELETE", "/tasks/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doJSON(router, "DELETE", "/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskServiceFailure(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = errors.New("database is locked")

	w := doJSON(router, "GET", "/tasks", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "locked")
}
