package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoease/internal/database"
	"todoease/internal/models"
	"todoease/internal/ordering"
)

func TestTimestampScan(t *testing.T) {
	want := time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC)

	for _, src := range []any{
		"2024-05-01 09:30:00.123456+00:00",
		"2024-05-01 18:30:00.123456+09:00",
		"2024-05-01 09:30:00.123456 +0000 UTC",
		"2024-05-01T09:30:00.123456Z",
		[]byte("2024-05-01 09:30:00.123456"),
		want.In(time.FixedZone("JST", 9*60*60)),
	} {
		var got time.Time
		require.NoError(t, timestamp{&got}.Scan(src), "%v", src)
		assert.True(t, want.Equal(got), "%v -> %v", src, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	var got time.Time
	assert.Error(t, timestamp{&got}.Scan("yesterday"))
	assert.Error(t, timestamp{&got}.Scan(42))
}

func TestFindAll_AttachesSubTasksAcrossBatches(t *testing.T) {
	defer func(n int) { subTaskBatchSize = n }(subTaskBatchSize)
	subTaskBatchSize = 2

	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{DSN: filepath.Join(t.TempDir(), database.DBFileName)})
	require.NoError(t, err)
	defer db.Close()

	order := ordering.NewMaintainer(ordering.PolicyCount)
	repo := NewTaskRepository(db, order)
	subRepo := NewSubTaskRepository(db, order)
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	for i := range 5 {
		task, err := repo.Create(ctx, &models.Task{Title: fmt.Sprintf("t%d", i), CreatedAt: now, TaskDate: models.NewDate(2024, time.May, 1)})
		require.NoError(t, err)
		for j := range i + 1 {
			_, err := subRepo.Create(ctx, task.ID, &models.SubTask{Title: fmt.Sprintf("t%d-%d", i, j), CreatedAt: now})
			require.NoError(t, err)
		}
	}

	tasks, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	for i, task := range tasks {
		require.Len(t, task.SubTasks, i+1, task.Title)
		for j, st := range task.SubTasks {
			assert.Equal(t, fmt.Sprintf("t%d-%d", i, j), st.Title)
			assert.Equal(t, task.ID, st.ParentTaskID)
		}
	}
}
