package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signup(t, "ada@example.com")

	deadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	rec, body := s.do(t, http.MethodPost, "/api/tasks", token, map[string]any{
		"title":       "  Write report  ",
		"description": "Quarterly numbers",
		"deadline":    deadline,
		"priority":    "High",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	task := body["task"].(map[string]any)
	id := task["id"].(string)
	assert.Equal(t, "Write report", task["title"])
	assert.Equal(t, "Incomplete", task["status"])
	assert.Equal(t, userID, task["userId"])
	assert.Nil(t, task["aiSuggestion"])

	rec, body = s.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["tasks"], 1)

	// Partial update leaves untouched fields alone; null clears
	rec, body = s.do(t, http.MethodPut, "/api/tasks/"+id, token, map[string]any{
		"status":      "Complete",
		"description": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task = body["task"].(map[string]any)
	assert.Equal(t, "Complete", task["status"])
	assert.Equal(t, "Write report", task["title"])
	assert.Equal(t, "High", task["priority"])
	assert.Nil(t, task["description"])
	assert.NotNil(t, task["deadline"])

	rec, body = s.do(t, http.MethodDelete, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = s.do(t, http.MethodPut, "/api/tasks/"+id, token, map[string]any{"title": "Again"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task_not_found", body["code"])

	rec, _ = s.do(t, http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "ada@example.com")

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"blank title", map[string]any{"title": "   "}, "title_required"},
		{"bad priority", map[string]any{"title": "Ok", "priority": "Urgent"}, "invalid_priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, "/api/tasks", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestTasksAreIsolatedPerUser(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.signup(t, "ada@example.com")
	other, _ := s.signup(t, "bob@example.com")

	id := s.createTask(t, owner, "Private")

	rec, body := s.do(t, http.MethodGet, "/api/tasks", other, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["tasks"])

	rec, _ = s.do(t, http.MethodPut, "/api/tasks/"+id, other, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodPut, "/api/tasks/"+id, other, map[string]any{"priority": "Urgent"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task_not_found", body["code"])

	rec, _ = s.do(t, http.MethodDelete, "/api/tasks/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/tasks", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Private", tasks[0].(map[string]any)["title"])
}

func TestTaskFiltersAndStats(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "ada@example.com")

	past := time.Now().Add(-24 * time.Hour).UTC()
	s.do(t, http.MethodPost, "/api/tasks", token, map[string]any{"title": "Late", "deadline": past})
	done := s.createTask(t, token, "Done")
	s.createTask(t, token, "Open")

	rec, _ := s.do(t, http.MethodPut, "/api/tasks/"+done, token, map[string]any{"status": "Complete"})
	require.Equal(t, http.StatusOK, rec.Code)

	for filter, want := range map[string]int{"": 3, "all": 3, "incomplete": 2, "complete": 1, "overdue": 1} {
		rec, body := s.do(t, http.MethodGet, "/api/tasks?filter="+filter, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, filter)
		assert.Len(t, body["tasks"], want, filter)
	}

	rec, body := s.do(t, http.MethodGet, "/api/tasks?filter=someday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_filter", body["code"])

	rec, body = s.do(t, http.MethodGet, "/api/tasks/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"all":        float64(3),
		"incomplete": float64(2),
		"complete":   float64(1),
		"overdue":    float64(1),
	}, body["counts"])
}
