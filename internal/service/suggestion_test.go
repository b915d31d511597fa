package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/taskpilot/internal/ai"
	"github.com/templui/taskpilot/internal/metrics"
	"github.com/templui/taskpilot/internal/model"
)

type stubGenerator struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	n := g.calls.Add(1)
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("suggestion %d", n), nil
}

func newSuggestionService(env *testEnv, gen ai.Generator) *SuggestionService {
	return NewSuggestionService(env.tasks, gen, nil, 5)
}

func TestSuggestStoresOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Write report")
	gen := &stubGenerator{}
	svc := newSuggestionService(env, gen)

	got, err := svc.Suggest(context.Background(), user, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AISuggestion)
	assert.Equal(t, "suggestion 1", *got.AISuggestion)

	_, err = svc.Suggest(context.Background(), user, task.ID)
	assert.ErrorIs(t, err, ErrAlreadySuggested)

	stored, err := env.taskSvc.Get(user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "suggestion 1", *stored.AISuggestion)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestSuggestQuota(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	gen := &stubGenerator{}
	svc := newSuggestionService(env, gen)

	for i := range 5 {
		task := env.task(t, user.ID, fmt.Sprintf("Task %d", i))
		_, err := svc.Suggest(context.Background(), user, task.ID)
		require.NoError(t, err)
	}

	remaining, err := svc.Remaining(user)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	sixth := env.task(t, user.ID, "Task 6")
	_, err = svc.Suggest(context.Background(), user, sixth.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, KindQuota, KindOf(err))
	assert.EqualValues(t, 5, gen.calls.Load())
}

func TestSuggestPremiumUnlimited(t *testing.T) {
	env := newTestEnv(t)
	user := env.premium(t, "pro@example.com")
	svc := newSuggestionService(env, &stubGenerator{})

	for i := range 7 {
		task := env.task(t, user.ID, fmt.Sprintf("Task %d", i))
		_, err := svc.Suggest(context.Background(), user, task.ID)
		require.NoError(t, err)
	}

	remaining, err := svc.Remaining(user)
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)
}

func TestSuggestErrors(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	other := env.signup(t, "other@example.com")
	task := env.task(t, owner.ID, "Mine")

	_, err := newSuggestionService(env, &stubGenerator{}).Suggest(context.Background(), other, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = newSuggestionService(env, nil).Suggest(context.Background(), owner, task.ID)
	assert.ErrorIs(t, err, ErrGeneratorNotConfigured)

	_, err = newSuggestionService(env, &stubGenerator{err: ai.ErrNotConfigured}).Suggest(context.Background(), owner, task.ID)
	assert.ErrorIs(t, err, ErrGeneratorNotConfigured)

	_, err = newSuggestionService(env, &stubGenerator{err: fmt.Errorf("%w: timeout", ai.ErrUnavailable)}).Suggest(context.Background(), owner, task.ID)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)

	// Failed attempts leave no suggestion behind and do not use up quota
	stored, err := env.taskSvc.Get(owner.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AISuggestion)
}

type deletingGenerator struct {
	delete func()
}

func (g *deletingGenerator) Generate(context.Context, string) (string, error) {
	g.delete()
	return "too late", nil
}

func TestSuggestTaskVanishedDuringGeneration(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Ephemeral")

	gen := &deletingGenerator{delete: func() {
		_, err := env.tasks.Delete(user.ID, task.ID)
		require.NoError(t, err)
	}}

	_, err := newSuggestionService(env, gen).Suggest(context.Background(), user, task.ID)
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestSuggestConcurrentRequestsForSameTask(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Contended")
	gen := &stubGenerator{delay: 20 * time.Millisecond}
	svc := newSuggestionService(env, gen)

	var wg sync.WaitGroup
	var succeeded, duplicates atomic.Int32
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Suggest(context.Background(), user, task.ID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadySuggested):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, 3, duplicates.Load())
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestSuggestCanceledContextSkipsGenerator(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Abandoned")
	gen := &stubGenerator{}
	svc := newSuggestionService(env, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Suggest(ctx, user, task.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, gen.calls.Load())

	stored, err := env.taskSvc.Get(user.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AISuggestion)
}

func TestSuggestGivesUpWaitingForUserLock(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Queued")
	gen := &stubGenerator{}
	svc := newSuggestionService(env, gen)

	unlock, err := svc.locks.lock(context.Background(), user.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Suggest(ctx, user, task.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 0, gen.calls.Load())

	unlock()
	assert.Empty(t, svc.locks.locks)

	_, err = svc.Suggest(context.Background(), user, task.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestSuggestRecordsOutcomes(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "ada@example.com")
	task := env.task(t, user.ID, "Measured")

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	svc := NewSuggestionService(env.tasks, &stubGenerator{}, collector, 5)

	_, err := svc.Suggest(context.Background(), user, task.ID)
	require.NoError(t, err)
	_, err = svc.Suggest(context.Background(), user, task.ID)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "taskpilot_suggestions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP taskpilot_suggestions_total AI suggestion requests by outcome
# TYPE taskpilot_suggestions_total counter
taskpilot_suggestions_total{outcome="already_suggested"} 1
taskpilot_suggestions_total{outcome="generated"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "taskpilot_suggestions_total"))
}

func TestBuildPrompt(t *testing.T) {
	deadline := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	task := &model.Task{
		Title:       "Prepare slides",
		Description: ptr("Quarterly review"),
		Priority:    model.TaskPriorityHigh,
		Deadline:    &deadline,
	}

	prompt := BuildPrompt(task)
	assert.Contains(t, prompt, "Task: Prepare slides")
	assert.Contains(t, prompt, "Description: Quarterly review")
	assert.Contains(t, prompt, "Priority: High")
	assert.Contains(t, prompt, "Deadline: Friday, January 2, 2026 at 3:04 PM UTC")
	assert.Equal(t, prompt, BuildPrompt(task))

	minimal := BuildPrompt(&model.Task{Title: "Call mom"})
	assert.NotContains(t, minimal, "Description:")
	assert.NotContains(t, minimal, "Deadline:")
}
