package importer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoease/internal/importer"
	"todoease/internal/models"
	"todoease/internal/services"
)

// fakeService は作成要求を記録するだけの TaskCreator / TaskLister です。
type fakeService struct {
	tasks  []*models.Task
	failOn string
}

func (f *fakeService) CreateTask(_ context.Context, req models.TaskCreateRequest) (*models.Task, error) {
	if req.Title == f.failOn {
		return nil, errors.New("disk full")
	}
	task := &models.Task{ID: int64(len(f.tasks) + 1), Title: req.Title, Description: req.Description, Completed: req.Completed}
	if req.TaskDate != nil {
		task.TaskDate = *req.TaskDate
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeService) CreateSubTask(_ context.Context, taskID int64, req models.SubTaskCreateRequest) (*models.SubTask, error) {
	parent := f.tasks[taskID-1]
	st := &models.SubTask{Title: req.Title, Completed: req.Completed, ParentTaskID: taskID}
	parent.SubTasks = append(parent.SubTasks, st)
	return st, nil
}

func (f *fakeService) ListTasks(context.Context) ([]*models.Task, error) {
	return f.tasks, nil
}

func TestImport(t *testing.T) {
	svc := &fakeService{}
	in := `tasks:
  - title: First
    date: "2024-01-02"
    subtasks:
      - title: a
      - title: b
        completed: true
  - title: Second
    description: notes
`
	n, err := importer.Import(context.Background(), svc, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, svc.tasks, 2)
	assert.Equal(t, "2024-01-02", svc.tasks[0].TaskDate.String())
	require.Len(t, svc.tasks[0].SubTasks, 2)
	assert.True(t, svc.tasks[0].SubTasks[1].Completed)
	assert.True(t, svc.tasks[1].TaskDate.IsZero(), "date left for the service to default")
	assert.Equal(t, "notes", svc.tasks[1].Description)
}

func TestImport_ValidatesBeforeWriting(t *testing.T) {
	svc := &fakeService{}
	in := `tasks:
  - title: ok
  - title: bad
    date: "2024-13-01"
`
	_, err := importer.Import(context.Background(), svc, strings.NewReader(in))
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Empty(t, svc.tasks)

	_, err = importer.Import(context.Background(), svc, strings.NewReader("tasks:\n  - title: x\n    subtasks:\n      - completed: true\n"))
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Empty(t, svc.tasks)

	for name, in := range map[string]string{
		"blank task":    "tasks:\n  - title: first\n  - title: \"   \"\n",
		"blank subtask": "tasks:\n  - title: first\n  - title: second\n    subtasks:\n      - title: \"\\t \"\n",
	} {
		n, err := importer.Import(context.Background(), svc, strings.NewReader(in))
		assert.ErrorIs(t, err, services.ErrInvalidInput, name)
		assert.Zero(t, n, name)
		assert.Empty(t, svc.tasks, name)
	}
}

func TestImport_StopsOnServiceError(t *testing.T) {
	svc := &fakeService{failOn: "second"}
	in := "tasks:\n  - title: first\n  - title: second\n  - title: third\n"

	n, err := importer.Import(context.Background(), svc, strings.NewReader(in))
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidInput)
	assert.Equal(t, 1, n)
	assert.Len(t, svc.tasks, 1)
}

func TestExportRoundTrip(t *testing.T) {
	src := &fakeService{}
	d := models.NewDate(2024, 5, 6)
	task, err := src.CreateTask(context.Background(), models.TaskCreateRequest{Title: "export me", Completed: true, TaskDate: &d})
	require.NoError(t, err)
	_, err = src.CreateSubTask(context.Background(), task.ID, models.SubTaskCreateRequest{Title: "child"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, importer.Export(context.Background(), src, &buf))
	assert.Contains(t, buf.String(), "title: export me")
	assert.Contains(t, buf.String(), "2024-05-06")

	dst := &fakeService{}
	n, err := importer.Import(context.Background(), dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "export me", dst.tasks[0].Title)
	assert.True(t, dst.tasks[0].Completed)
	assert.Equal(t, "2024-05-06", dst.tasks[0].TaskDate.String())
	require.Len(t, dst.tasks[0].SubTasks, 1)
	assert.Equal(t, "child", dst.tasks[0].SubTasks[0].Title)
}
