// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"todoease/internal/models"
	"todoease/internal/ordering"
)

// ErrTaskNotFound はタスクが見つからない場合のエラーです。
var ErrTaskNotFound = errors.New("task not found")

// subTaskBatchSize は1回の IN 句に渡す親タスク ID の上限です。
// SQLite のバインド変数上限 (32766) より十分小さくしています。
var subTaskBatchSize = 500

// queryer は *sql.Tx で満たされる読み書きの共通部分です。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TaskRepository は tasks テーブルの操作を行います。
type TaskRepository struct {
	DB    *sql.DB
	Order *ordering.Maintainer
}

// NewTaskRepository は新しいTaskRepositoryインスタンスを作成します。
func NewTaskRepository(db *sql.DB, order *ordering.Maintainer) *TaskRepository {
	return &TaskRepository{DB: db, Order: order}
}

// Create は新しいタスクを末尾の位置に挿入します。t.OrderIndex は無視されます。
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	scope := ordering.AllTasks()
	unlock := r.Order.Lock(scope)
	defer unlock()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	index, err := r.Order.NextIndex(ctx, tx, scope)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO tasks (title, description, completed, order_index, created_at, task_date) VALUES (?, ?, ?, ?, ?, ?)",
		t.Title, t.Description, t.Completed, index, t.CreatedAt, t.TaskDate,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit task: %w", err)
	}

	t.ID = id
	t.OrderIndex = index
	if t.SubTasks == nil {
		t.SubTasks = []*models.SubTask{}
	}
	return t, nil
}

// FindAll はすべてのタスクをサブタスク付きで order_index 順に取得します。
func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY order_index, id")
}

// FindByDate は task_date が d と一致するタスクを order_index 順に取得します。
func (r *TaskRepository) FindByDate(ctx context.Context, d models.Date) ([]*models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks WHERE task_date = ? ORDER BY order_index, id", d)
}

// FindByDateRange は task_date が [start, end] に含まれるタスクを task_date の降順で取得します。
func (r *TaskRepository) FindByDateRange(ctx context.Context, start, end models.Date) ([]*models.Task, error) {
	return r.list(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE task_date >= ? AND task_date <= ? ORDER BY task_date DESC, order_index, id",
		start, end,
	)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	tasks, err := queryTasks(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := attachSubTasks(ctx, tx, tasks); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit read: %w", err)
	}
	return tasks, nil
}

// FindByID は指定されたIDのタスクをサブタスク付きで取得します。
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := findTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit read: %w", err)
	}
	return t, nil
}

// Update は upd で指定されたフィールドだけを更新し、更新後のタスクを返します。
func (r *TaskRepository) Update(ctx context.Context, id int64, upd models.TaskUpdateRequest) (*models.Task, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureExists(ctx, tx, "tasks", id, ErrTaskNotFound); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	if upd.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *upd.Description)
	}
	if upd.Completed != nil {
		sets, args = append(sets, "completed = ?"), append(args, *upd.Completed)
	}
	if upd.OrderIndex != nil {
		sets, args = append(sets, "order_index = ?"), append(args, *upd.OrderIndex)
	}
	if upd.TaskDate != nil && !upd.TaskDate.IsZero() {
		sets, args = append(sets, "task_date = ?"), append(args, *upd.TaskDate)
	}
	if len(sets) > 0 {
		query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
			return nil, fmt.Errorf("could not update task: %w", err)
		}
	}

	t, err := findTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit task update: %w", err)
	}
	return t, nil
}

// Delete は指定されたIDのタスクとそのサブタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE parent_task_id = ?", id); err != nil {
		return fmt.Errorf("could not delete subtasks: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return tx.Commit()
}

// Reorder は ids の並び順で order_index を振り直します。
func (r *TaskRepository) Reorder(ctx context.Context, ids []int64) (int, error) {
	scope := ordering.AllTasks()
	unlock := r.Order.Lock(scope)
	defer unlock()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := r.Order.Reorder(ctx, tx, scope, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit reorder: %w", err)
	}
	return n, nil
}

// Counts は全タスク数と完了タスク数を返します。
func (r *TaskRepository) Counts(ctx context.Context) (total, completed int, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0) FROM tasks",
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("could not count tasks: %w", err)
	}
	return total, completed, nil
}

// CountsBetween は task_date が [start, end) のタスク数と完了数を返します。
func (r *TaskRepository) CountsBetween(ctx context.Context, start, end models.Date) (total, completed int, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0) FROM tasks WHERE task_date >= ? AND task_date < ?",
		start, end,
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("could not count tasks between %s and %s: %w", start, end, err)
	}
	return total, completed, nil
}

// DailyCountsBetween は task_date が [start, end) の日ごとの集計を日付の昇順で返します。
// タスクのない日は含まれません。
func (r *TaskRepository) DailyCountsBetween(ctx context.Context, start, end models.Date) ([]models.DailyStat, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT task_date, COUNT(*), COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0)
		FROM tasks
		WHERE task_date >= ? AND task_date < ?
		GROUP BY task_date
		ORDER BY task_date`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query daily counts: %w", err)
	}
	defer rows.Close()

	stats := []models.DailyStat{}
	for rows.Next() {
		var s models.DailyStat
		if err := rows.Scan(&s.Date, &s.Total, &s.Completed); err != nil {
			return nil, fmt.Errorf("could not scan daily count: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily counts: %w", err)
	}
	return stats, nil
}

func queryTasks(ctx context.Context, q queryer, query string, args ...any) ([]*models.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func findTask(ctx context.Context, q queryer, id int64) (*models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	if err := attachSubTasks(ctx, q, []*models.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// attachSubTasks は tasks のサブタスクを order_index 順に読み込んで各タスクに設定します。
func attachSubTasks(ctx context.Context, q queryer, tasks []*models.Task) error {
	byID := make(map[int64]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for start := 0; start < len(tasks); start += subTaskBatchSize {
		end := min(start+subTaskBatchSize, len(tasks))
		if err := attachSubTaskBatch(ctx, q, tasks[start:end], byID); err != nil {
			return err
		}
	}
	return nil
}

func attachSubTaskBatch(ctx context.Context, q queryer, batch []*models.Task, byID map[int64]*models.Task) error {
	placeholders := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch))
	for _, t := range batch {
		placeholders = append(placeholders, "?")
		args = append(args, t.ID)
	}

	query := "SELECT " + subTaskColumns + " FROM subtasks WHERE parent_task_id IN (" +
		strings.Join(placeholders, ", ") + ") ORDER BY parent_task_id, order_index, id"
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("could not query subtasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return fmt.Errorf("could not scan subtask: %w", err)
		}
		if parent, ok := byID[st.ParentTaskID]; ok {
			parent.SubTasks = append(parent.SubTasks, st)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating subtasks: %w", err)
	}
	return nil
}

func ensureExists(ctx context.Context, q queryer, table string, id int64, notFound error) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("could not check %s id=%d: %w", table, id, err)
	}
	return nil
}
