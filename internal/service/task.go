package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/validation"
)

// TaskForm is the input for a new task.
type TaskForm struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    string     `json:"priority"`
}

type TaskService struct {
	taskRepository repository.TaskRepository
	now            func() time.Time
}

func NewTaskService(taskRepository repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepository: taskRepository,
		now:            time.Now,
	}
}

func (s *TaskService) List(userID string) ([]*model.Task, error) {
	tasks, err := s.taskRepository.Tasks(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListFiltered narrows List to one dashboard filter. An empty filter means all.
func (s *TaskService) ListFiltered(userID, filter string) ([]*model.Task, error) {
	if filter == "" {
		filter = model.TaskFilterAll
	}
	if !model.IsValidFilter(filter) {
		return nil, ErrInvalidFilter
	}

	tasks, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	if filter == model.TaskFilterAll {
		return tasks, nil
	}

	now := s.now()
	filtered := []*model.Task{}
	for _, t := range tasks {
		if t.MatchesFilter(filter, now) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *TaskService) Get(userID, taskID string) (*model.Task, error) {
	task, err := s.taskRepository.ByID(userID, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Create(userID string, form TaskForm) (*model.Task, error) {
	title, err := validTitle(form.Title)
	if err != nil {
		return nil, err
	}

	priority := form.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !model.IsValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	description, err := optionalDescription(form.Description)
	if err != nil {
		return nil, err
	}

	var deadline *time.Time
	if form.Deadline != nil {
		d := form.Deadline.UTC()
		deadline = &d
	}

	task := &model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Deadline:    deadline,
		Priority:    priority,
		Status:      model.TaskStatusIncomplete,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	err = s.taskRepository.Create(task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	slog.Debug("task created", "user_id", userID, "task_id", task.ID)
	return task, nil
}

// Update applies a partial update to a task the user owns.
func (s *TaskService) Update(userID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	// Ownership first: a foreign task is not-found whatever the patch holds
	task, err := s.Get(userID, taskID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return task, nil
	}

	if patch.Title.Set {
		if patch.Title.Value == nil {
			return nil, ErrTitleRequired
		}
		title, err := validTitle(*patch.Title.Value)
		if err != nil {
			return nil, err
		}
		patch.Title = model.Of(title)
	}

	if patch.Description.Set {
		description, err := optionalDescription(patch.Description.Value)
		if err != nil {
			return nil, err
		}
		patch.Description.Value = description
	}

	if patch.Deadline.Set && patch.Deadline.Value != nil {
		patch.Deadline = model.Of(patch.Deadline.Value.UTC())
	}

	if patch.Priority.Set && (patch.Priority.Value == nil || !model.IsValidPriority(*patch.Priority.Value)) {
		return nil, ErrInvalidPriority
	}

	if patch.Status.Set && (patch.Status.Value == nil || !model.IsValidStatus(*patch.Status.Value)) {
		return nil, ErrInvalidStatus
	}

	err = s.taskRepository.Update(userID, taskID, patch)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	patch.Apply(task)
	return task, nil
}

func (s *TaskService) Delete(userID, taskID string) (bool, error) {
	_, err := s.Get(userID, taskID)
	if err != nil {
		return false, err
	}

	deleted, err := s.taskRepository.Delete(userID, taskID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return false, ErrTaskNotFound
	}

	slog.Debug("task deleted", "user_id", userID, "task_id", taskID)
	return true, nil
}

// Stats counts the user's tasks per dashboard filter at the current time.
func (s *TaskService) Stats(userID string) (model.TaskCounts, error) {
	tasks, err := s.List(userID)
	if err != nil {
		return model.TaskCounts{}, err
	}
	return CountsByStatus(tasks, s.now()), nil
}

// CountsByStatus is pure: overdue means a deadline before now on an incomplete task.
func CountsByStatus(tasks []*model.Task, now time.Time) model.TaskCounts {
	counts := model.TaskCounts{All: len(tasks)}
	for _, t := range tasks {
		if t.IsComplete() {
			counts.Complete++
		} else {
			counts.Incomplete++
		}
		if t.IsOverdue(now) {
			counts.Overdue++
		}
	}
	return counts
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if validation.ValidateTitle(title) != nil {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// optionalDescription trims a description; blank means none.
func optionalDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	err := validation.ValidateDescription(trimmed)
	if err != nil {
		return nil, ValidationError(err.Error())
	}
	return &trimmed, nil
}
