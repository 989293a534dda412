// Package importer はタスクを YAML 形式で取り込み・書き出しします。
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"todoease/internal/models"
	"todoease/internal/services"
)

// YAMLSubTask は YAML 内の1つのサブタスクです。
type YAMLSubTask struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed,omitempty"`
}

// YAMLTask は YAML 内の1つのタスクです。
type YAMLTask struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description,omitempty"`
	Completed   bool          `yaml:"completed,omitempty"`
	Date        string        `yaml:"date,omitempty"`
	SubTasks    []YAMLSubTask `yaml:"subtasks,omitempty"`
}

// Document は YAML のルート構造です。
type Document struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// TaskCreator は Import が必要とする操作です。*services.TaskService が満たします。
type TaskCreator interface {
	CreateTask(ctx context.Context, req models.TaskCreateRequest) (*models.Task, error)
	CreateSubTask(ctx context.Context, taskID int64, req models.SubTaskCreateRequest) (*models.SubTask, error)
}

// TaskLister は Export が必要とする操作です。
type TaskLister interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
}

// Import は r の YAML を解析してタスクとサブタスクを作成し、作成したタスク数を返します。
// 途中で失敗した場合、それまでに作成したタスクは残ります。
func Import(ctx context.Context, svc TaskCreator, r io.Reader) (int, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: empty YAML document", services.ErrInvalidInput)
		}
		return 0, fmt.Errorf("%w: YAML parse error: %v", services.ErrInvalidInput, err)
	}
	if len(doc.Tasks) == 0 {
		return 0, fmt.Errorf("%w: no tasks found in YAML", services.ErrInvalidInput)
	}

	// 1件目を作る前に全件の必須項目と日付を検証する
	for i, yt := range doc.Tasks {
		if err := validate(i, yt); err != nil {
			return 0, err
		}
	}

	count := 0
	for _, yt := range doc.Tasks {
		if err := importTask(ctx, svc, yt); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func validate(i int, yt YAMLTask) error {
	if strings.TrimSpace(yt.Title) == "" {
		return fmt.Errorf("%w: tasks[%d]: title is required", services.ErrInvalidInput, i)
	}
	if yt.Date != "" {
		if _, err := services.ParseDateParam(fmt.Sprintf("tasks[%d].date", i), yt.Date); err != nil {
			return err
		}
	}
	for j, st := range yt.SubTasks {
		if strings.TrimSpace(st.Title) == "" {
			return fmt.Errorf("%w: tasks[%d].subtasks[%d]: title is required", services.ErrInvalidInput, i, j)
		}
	}
	return nil
}

func importTask(ctx context.Context, svc TaskCreator, yt YAMLTask) error {
	req := models.TaskCreateRequest{
		Title:       yt.Title,
		Description: yt.Description,
		Completed:   yt.Completed,
	}
	if yt.Date != "" {
		d, err := models.ParseDate(yt.Date)
		if err != nil {
			return fmt.Errorf("%w: date %q: %v", services.ErrInvalidInput, yt.Date, err)
		}
		req.TaskDate = &d
	}

	task, err := svc.CreateTask(ctx, req)
	if err != nil {
		return fmt.Errorf("add task %q: %w", yt.Title, err)
	}
	for _, st := range yt.SubTasks {
		if _, err := svc.CreateSubTask(ctx, task.ID, models.SubTaskCreateRequest{Title: st.Title, Completed: st.Completed}); err != nil {
			return fmt.Errorf("add subtask %q to %q: %w", st.Title, yt.Title, err)
		}
	}
	return nil
}

// Export はすべてのタスクを Import と同じ形式の YAML で w に書き出します。
func Export(ctx context.Context, svc TaskLister, w io.Writer) error {
	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return err
	}

	doc := Document{Tasks: make([]YAMLTask, 0, len(tasks))}
	for _, t := range tasks {
		yt := YAMLTask{
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			Date:        t.TaskDate.String(),
		}
		for _, st := range t.SubTasks {
			yt.SubTasks = append(yt.SubTasks, YAMLSubTask{Title: st.Title, Completed: st.Completed})
		}
		doc.Tasks = append(doc.Tasks, yt)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}
