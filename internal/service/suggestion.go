package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/templui/taskpilot/internal/ai"
	"github.com/templui/taskpilot/internal/metrics"
	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
)

const deadlineLayout = "Monday, January 2, 2006 at 3:04 PM"

type SuggestionService struct {
	taskRepository repository.TaskRepository
	generator      ai.Generator
	metrics        metrics.Recorder
	freeLimit      int
	locks          *userLocks
}

func NewSuggestionService(
	taskRepository repository.TaskRepository,
	generator ai.Generator,
	recorder metrics.Recorder,
	freeLimit int,
) *SuggestionService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &SuggestionService{
		taskRepository: taskRepository,
		generator:      generator,
		metrics:        recorder,
		freeLimit:      freeLimit,
		locks:          newUserLocks(),
	}
}

// Remaining reports how many free suggestions the user has left, or -1 for unlimited.
func (s *SuggestionService) Remaining(user *model.User) (int, error) {
	if user.IsPremium {
		return -1, nil
	}
	used, err := s.taskRepository.CountSuggested(user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count suggestions: %w", err)
	}
	return max(s.freeLimit-used, 0), nil
}

// Suggest generates and stores the one suggestion a task may ever carry.
// Requests from the same user are serialised so the quota and idempotency
// checks cannot be raced.
func (s *SuggestionService) Suggest(ctx context.Context, user *model.User, taskID string) (task *model.Task, err error) {
	defer func() {
		s.metrics.RecordSuggestion(outcomeOf(err))
	}()

	unlock, err := s.locks.lock(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	task, err = s.taskRepository.ByID(user.ID, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if task.HasSuggestion() {
		return nil, ErrAlreadySuggested
	}

	if !user.IsPremium {
		used, err := s.taskRepository.CountSuggested(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count suggestions: %w", err)
		}
		if used >= s.freeLimit {
			return nil, ErrQuotaExceeded
		}
	}

	if s.generator == nil {
		return nil, ErrGeneratorNotConfigured
	}

	// The caller may have gone away while queued behind another request
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, BuildPrompt(task))
	s.metrics.RecordGeneration(time.Since(start))
	if errors.Is(err, ai.ErrNotConfigured) {
		return nil, ErrGeneratorNotConfigured
	}
	if err != nil {
		slog.Error("ai generation failed", "error", err, "user_id", user.ID, "task_id", taskID)
		return nil, ErrGenerationUnavailable
	}

	stored, err := s.taskRepository.SetSuggestion(user.ID, taskID, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if !stored {
		current, err := s.taskRepository.ByID(user.ID, taskID)
		if err == nil && current.HasSuggestion() {
			return nil, ErrAlreadySuggested
		}
		// Task deleted while the generator was running
		return nil, ErrPersistenceFailure
	}

	task.AISuggestion = &text
	slog.Info("ai suggestion stored", "user_id", user.ID, "task_id", taskID)
	return task, nil
}

// BuildPrompt renders the task into the text sent to the generator.
// Output depends only on the task fields.
func BuildPrompt(task *model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task.Title)
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(*task.Description))
	}
	if task.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	}
	if task.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s UTC\n", task.Deadline.UTC().Format(deadlineLayout))
	}
	b.WriteString("Give a short, practical suggestion for getting this done.")
	return b.String()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeGenerated
	case errors.Is(err, ErrAlreadySuggested):
		return metrics.OutcomeAlreadySuggested
	case errors.Is(err, ErrQuotaExceeded):
		return metrics.OutcomeQuotaExceeded
	case errors.Is(err, ErrTaskNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrGeneratorNotConfigured):
		return metrics.OutcomeNotConfigured
	case errors.Is(err, ErrGenerationUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

// userLocks hands out one mutex per user id and forgets it once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sem  chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// lock blocks until the user's lock is held or ctx is done.
func (l *userLocks) lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, ctx.Err()
	}

	return func() {
		<-ul.sem
		l.release(userID, ul)
	}, nil
}

func (l *userLocks) release(userID string, ul *userLock) {
	l.mu.Lock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}
