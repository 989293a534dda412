package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoease/internal/models"
	"todoease/internal/ordering"
	"todoease/internal/repositories"
	"todoease/internal/services"
	"todoease/testutil"
)

func setupServices(t *testing.T) (*services.TaskService, *services.StatsService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	order := ordering.NewMaintainer(ordering.PolicyCount)
	taskRepo := repositories.NewTaskRepository(db, order)
	subTaskRepo := repositories.NewSubTaskRepository(db, order)
	return services.NewTaskService(taskRepo, subTaskRepo), services.NewStatsService(taskRepo)
}

func createOn(t *testing.T, svc *services.TaskService, title, date string, completed bool) *models.Task {
	t.Helper()
	d, err := models.ParseDate(date)
	require.NoError(t, err)
	task, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: title, TaskDate: &d, Completed: completed})
	require.NoError(t, err)
	return task
}

func TestCreateTask_DefaultsDateToToday(t *testing.T) {
	svc, _ := setupServices(t)
	now := time.Date(2024, 3, 10, 23, 45, 0, 0, time.Local)
	svc.SetClock(func() time.Time { return now })

	task, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: "today"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", task.TaskDate.String())
	assert.True(t, now.UTC().Equal(task.CreatedAt))
	assert.Empty(t, task.SubTasks)
}

func TestCreateTask_IgnoresRequestedOrderIndex(t *testing.T) {
	svc, _ := setupServices(t)
	idx := 42

	task, err := svc.CreateTask(context.Background(), models.TaskCreateRequest{Title: "x", OrderIndex: &idx})
	require.NoError(t, err)
	assert.Equal(t, 0, task.OrderIndex)
}

func TestTaskService_Validation(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, models.TaskCreateRequest{Title: "   "})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	task := createOn(t, svc, "t", "2024-01-01", false)

	empty := ""
	_, err = svc.UpdateTask(ctx, task.ID, models.TaskUpdateRequest{Title: &empty})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	neg := -1
	_, err = svc.UpdateTask(ctx, task.ID, models.TaskUpdateRequest{OrderIndex: &neg})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.CreateSubTask(ctx, task.ID, models.SubTaskCreateRequest{Title: ""})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.CreateSubTask(ctx, 9999, models.SubTaskCreateRequest{Title: "orphan"})
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}

func TestUpdate_EmptyRequestReturnsCurrent(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	task := createOn(t, svc, "keep", "2024-01-01", true)
	st, err := svc.CreateSubTask(ctx, task.ID, models.SubTaskCreateRequest{Title: "child"})
	require.NoError(t, err)

	got, err := svc.UpdateTask(ctx, task.ID, models.TaskUpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
	assert.True(t, got.Completed)
	require.Len(t, got.SubTasks, 1)

	gotSub, err := svc.UpdateSubTask(ctx, st.ID, models.SubTaskUpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "child", gotSub.Title)
	assert.Equal(t, task.ID, gotSub.ParentTaskID)

	_, err = svc.UpdateTask(ctx, 9999, models.TaskUpdateRequest{})
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
	_, err = svc.UpdateSubTask(ctx, 9999, models.SubTaskUpdateRequest{})
	assert.ErrorIs(t, err, repositories.ErrSubTaskNotFound)
}

func TestRenderDescription(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, models.TaskCreateRequest{
		Title:       "notes",
		Description: "**bold** and <script>alert(1)</script>",
	})
	require.NoError(t, err)

	html, err := svc.RenderDescription(ctx, task.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")

	_, err = svc.RenderDescription(ctx, 9999)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}

func TestTasksByDate(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	createOn(t, svc, "leap", "2024-02-29", false)
	createOn(t, svc, "after", "2024-03-01", false)

	tasks, err := stats.TasksByDate(ctx, "2024-02-29")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "leap", tasks[0].Title)

	for _, bad := range []string{"2024-02-30", "", "29/02/2024"} {
		_, err := stats.TasksByDate(ctx, bad)
		assert.ErrorIs(t, err, services.ErrInvalidInput, bad)
	}
}

func TestTasksByDateRange(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	createOn(t, svc, "a", "2024-01-01", false)
	createOn(t, svc, "b", "2024-01-05", false)

	tasks, err := stats.TasksByDateRange(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].Title)

	tasks, err = stats.TasksByDateRange(ctx, "2024-01-31", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = stats.TasksByDateRange(ctx, "2024-01-01", "nope")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestCompletionStats(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	s, err := stats.CompletionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalTasks)
	assert.Equal(t, 0.0, s.CompletionPercentage)

	createOn(t, svc, "a", "2024-01-01", true)
	createOn(t, svc, "b", "2024-01-01", false)
	createOn(t, svc, "c", "2024-01-01", false)

	s, err = stats.CompletionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 1, s.CompletedTasks)
	assert.Equal(t, 33.3, s.CompletionPercentage)
}

func TestMonthWindow(t *testing.T) {
	start, end, err := services.MonthWindow(2024, 12)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", start.String())
	assert.Equal(t, "2025-01-01", end.String())

	start, end, err = services.MonthWindow(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", start.String())
	assert.Equal(t, "2024-03-01", end.String())

	for _, m := range []int{0, 13, -1} {
		_, _, err := services.MonthWindow(2024, m)
		assert.ErrorIs(t, err, services.ErrInvalidInput)
	}
	_, _, err = services.MonthWindow(0, 1)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	start, end, err = services.MonthWindow(9999, 11)
	require.NoError(t, err)
	assert.Equal(t, "9999-11-01", start.String())
	assert.Equal(t, "9999-12-01", end.String())

	_, _, err = services.MonthWindow(9999, 12)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestMonthStats_LastRepresentableMonth(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	createOn(t, svc, "far", "9999-12-15", false)

	_, err := stats.CalendarSummary(ctx, 9999, 12)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	_, err = stats.MonthlyStats(ctx, 9999, 12)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	s, err := stats.CompletionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalTasks)
}

func TestCalendarSummary_MonthBoundaries(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	createOn(t, svc, "dec", "2023-12-31", false)
	createOn(t, svc, "jan-first", "2024-01-01", true)
	createOn(t, svc, "jan-last", "2024-01-31", false)
	createOn(t, svc, "jan-last-2", "2024-01-31", true)
	createOn(t, svc, "feb", "2024-02-01", false)

	summary, err := stats.CalendarSummary(ctx, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 1, summary.Month)
	require.Len(t, summary.DailyStats, 2)
	assert.Equal(t, "2024-01-01", summary.DailyStats[0].Date.String())
	assert.Equal(t, models.DailyStat{Date: models.NewDate(2024, time.January, 31), Total: 2, Completed: 1}, summary.DailyStats[1])

	empty, err := stats.CalendarSummary(ctx, 2024, 6)
	require.NoError(t, err)
	assert.NotNil(t, empty.DailyStats)
	assert.Empty(t, empty.DailyStats)
}

func TestMonthlyStats_DecemberRollsOver(t *testing.T) {
	svc, stats := setupServices(t)
	ctx := context.Background()

	createOn(t, svc, "dec", "2024-12-31", true)
	createOn(t, svc, "dec-2", "2024-12-01", false)
	createOn(t, svc, "next-year", "2025-01-01", true)

	m, err := stats.MonthlyStats(ctx, 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, 12, m.Month)
	assert.Equal(t, 2, m.TotalTasks)
	assert.Equal(t, 1, m.CompletedTasks)
	assert.Equal(t, 50.0, m.CompletionPercentage)

	_, err = stats.MonthlyStats(ctx, 2024, 13)
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.True(t, strings.Contains(err.Error(), "month"))
}
