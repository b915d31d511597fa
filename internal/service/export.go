package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/taskpilot/internal/model"
	"github.com/templui/taskpilot/internal/repository"
	"github.com/templui/taskpilot/internal/storage"
)

// TaskExport is the document written to storage.
type TaskExport struct {
	UserID     string           `json:"userId"`
	ExportedAt time.Time        `json:"exportedAt"`
	Counts     model.TaskCounts `json:"counts"`
	Tasks      []*model.Task    `json:"tasks"`
}

// ExportLink points at an uploaded export.
type ExportLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExportService struct {
	taskRepository repository.TaskRepository
	storage        storage.Storage
	emailService   *EmailService
	now            func() time.Time
}

// NewExportService builds the export flow. store may be nil when no bucket is
// configured.
func NewExportService(taskRepository repository.TaskRepository, store storage.Storage, emailService *EmailService) *ExportService {
	return &ExportService{
		taskRepository: taskRepository,
		storage:        store,
		emailService:   emailService,
		now:            time.Now,
	}
}

func (s *ExportService) Export(ctx context.Context, user *model.User) (*ExportLink, error) {
	if !user.IsPremium {
		return nil, ErrPremiumRequired
	}
	if s.storage == nil {
		return nil, ErrExportDisabled
	}

	tasks, err := s.taskRepository.Tasks(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	now := s.now().UTC()
	doc := TaskExport{
		UserID:     user.ID,
		ExportedAt: now,
		Counts:     CountsByStatus(tasks, now),
		Tasks:      tasks,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	path := fmt.Sprintf("exports/%s/%d.json", user.ID, now.Unix())
	err = s.storage.Save(ctx, path, "application/json", data)
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	url, expiresAt, err := s.storage.PresignedURL(ctx, path)
	if err != nil {
		// Nobody can reach the object without a link
		deleteErr := s.storage.Delete(ctx, path)
		if deleteErr != nil {
			slog.Warn("failed to remove unsigned export", "error", deleteErr, "path", path)
		}
		return nil, fmt.Errorf("failed to sign export link: %w", err)
	}

	err = s.emailService.SendExportReadyEmail(user.Email, user.Name, url)
	if err != nil {
		slog.Warn("failed to send export email", "error", err, "user_id", user.ID)
	}

	slog.Info("tasks exported", "user_id", user.ID, "tasks", len(tasks), "path", path)
	return &ExportLink{URL: url, ExpiresAt: expiresAt}, nil
}
