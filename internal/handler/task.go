package handler

import (
	"net/http"

	"github.com/templui/taskpilot/internal/ctxkeys"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	tasks, err := h.taskService.ListFiltered(user.ID, r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	writeJSON(w, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	counts, err := h.taskService.Stats(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"counts": counts})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var form service.TaskForm
	err := decodeJSON(w, r, &form)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Create(user.ID, form)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"task": task})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var patch model.TaskPatch
	err := decodeJSON(w, r, &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.taskService.Update(user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"task": task})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	_, err := h.taskService.Delete(user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"success": true})
}
