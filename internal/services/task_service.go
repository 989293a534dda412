package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"todoease/internal/models"
	"todoease/internal/repositories"
)

// TaskService はタスク・サブタスクのビジネスロジックを扱います。
type TaskService struct {
	taskRepo    *repositories.TaskRepository
	subTaskRepo *repositories.SubTaskRepository
	now         func() time.Time
	markdown    goldmark.Markdown
}

// NewTaskService は新しいTaskServiceを作成します。
func NewTaskService(taskRepo *repositories.TaskRepository, subTaskRepo *repositories.SubTaskRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		subTaskRepo: subTaskRepo,
		now:         time.Now,
		markdown:    goldmark.New(),
	}
}

// SetClock は現在時刻の取得元を差し替えます (テスト用)。
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TaskService) createdAt() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ListTasks はすべてのタスクを order_index 順に返します。
func (s *TaskService) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return s.taskRepo.FindAll(ctx)
}

// GetTask は指定IDのタスクを返します。
func (s *TaskService) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return s.taskRepo.FindByID(ctx, id)
}

// CreateTask はタスクを作成します。task_date が省略された場合は作成日 (ローカル時間) になります。
func (s *TaskService) CreateTask(ctx context.Context, req models.TaskCreateRequest) (*models.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalidf("title is required")
	}

	now := s.now()
	taskDate := models.DateOf(now)
	if req.TaskDate != nil && !req.TaskDate.IsZero() {
		taskDate = *req.TaskDate
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		CreatedAt:   now.UTC().Truncate(time.Microsecond),
		TaskDate:    taskDate,
	}
	return s.taskRepo.Create(ctx, task)
}

// UpdateTask はタスクを部分更新します。
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req models.TaskUpdateRequest) (*models.Task, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, invalidf("title must not be empty")
	}
	if req.OrderIndex != nil && *req.OrderIndex < 0 {
		return nil, invalidf("order_index must be non-negative")
	}
	if req.IsEmpty() {
		return s.taskRepo.FindByID(ctx, id)
	}
	return s.taskRepo.Update(ctx, id, req)
}

// DeleteTask はタスクとそのサブタスクを削除します。
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	return s.taskRepo.Delete(ctx, id)
}

// ReorderTasks は全タスクを ids の順に並び替えます。未知の id は無視されます。
func (s *TaskService) ReorderTasks(ctx context.Context, ids []int64) error {
	_, err := s.taskRepo.Reorder(ctx, ids)
	return err
}

// CreateSubTask は taskID のサブタスクを末尾に追加します。
func (s *TaskService) CreateSubTask(ctx context.Context, taskID int64, req models.SubTaskCreateRequest) (*models.SubTask, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalidf("title is required")
	}
	st := &models.SubTask{
		Title:     req.Title,
		Completed: req.Completed,
		CreatedAt: s.createdAt(),
	}
	return s.subTaskRepo.Create(ctx, taskID, st)
}

// UpdateSubTask はサブタスクを部分更新します。
func (s *TaskService) UpdateSubTask(ctx context.Context, id int64, req models.SubTaskUpdateRequest) (*models.SubTask, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, invalidf("title must not be empty")
	}
	if req.OrderIndex != nil && *req.OrderIndex < 0 {
		return nil, invalidf("order_index must be non-negative")
	}
	if req.IsEmpty() {
		return s.subTaskRepo.FindByID(ctx, id)
	}
	return s.subTaskRepo.Update(ctx, id, req)
}

// DeleteSubTask はサブタスクを削除します。
func (s *TaskService) DeleteSubTask(ctx context.Context, id int64) error {
	return s.subTaskRepo.Delete(ctx, id)
}

// ReorderSubTasks は taskID のサブタスクを ids の順に並び替えます。
func (s *TaskService) ReorderSubTasks(ctx context.Context, taskID int64, ids []int64) error {
	_, err := s.subTaskRepo.Reorder(ctx, taskID, ids)
	return err
}

// RenderDescription はタスクの説明を Markdown として HTML に変換します。生の HTML はエスケープされます。
func (s *TaskService) RenderDescription(ctx context.Context, id int64) (string, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(task.Description), &buf); err != nil {
		return "", fmt.Errorf("render description of task %d: %w", id, err)
	}
	return buf.String(), nil
}
