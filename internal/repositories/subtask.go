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

// ErrSubTaskNotFound はサブタスクが見つからない場合のエラーです。
var ErrSubTaskNotFound = errors.New("subtask not found")

// SubTaskRepository は subtasks テーブルの操作を行います。
type SubTaskRepository struct {
	DB    *sql.DB
	Order *ordering.Maintainer
}

// NewSubTaskRepository は新しいSubTaskRepositoryインスタンスを作成します。
func NewSubTaskRepository(db *sql.DB, order *ordering.Maintainer) *SubTaskRepository {
	return &SubTaskRepository{DB: db, Order: order}
}

// Create は親タスクのサブタスク群の末尾に st を追加します。親が存在しなければ ErrTaskNotFound を返します。
func (r *SubTaskRepository) Create(ctx context.Context, parentID int64, st *models.SubTask) (*models.SubTask, error) {
	scope := ordering.SubTasksOf(parentID)
	unlock := r.Order.Lock(scope)
	defer unlock()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureExists(ctx, tx, "tasks", parentID, ErrTaskNotFound); err != nil {
		return nil, err
	}

	index, err := r.Order.NextIndex(ctx, tx, scope)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO subtasks (title, completed, order_index, created_at, parent_task_id) VALUES (?, ?, ?, ?, ?)",
		st.Title, st.Completed, index, st.CreatedAt, parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert subtask: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit subtask: %w", err)
	}

	st.ID = id
	st.OrderIndex = index
	st.ParentTaskID = parentID
	return st, nil
}

// FindByID は指定されたIDのサブタスクを取得します。
func (r *SubTaskRepository) FindByID(ctx context.Context, id int64) (*models.SubTask, error) {
	return findSubTask(ctx, r.DB, id)
}

// Update は upd で指定されたフィールドだけを更新します。
func (r *SubTaskRepository) Update(ctx context.Context, id int64, upd models.SubTaskUpdateRequest) (*models.SubTask, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureExists(ctx, tx, "subtasks", id, ErrSubTaskNotFound); err != nil {
		return nil, err
	}

	var (
		sets []string
		args []any
	)
	if upd.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *upd.Title)
	}
	if upd.Completed != nil {
		sets, args = append(sets, "completed = ?"), append(args, *upd.Completed)
	}
	if upd.OrderIndex != nil {
		sets, args = append(sets, "order_index = ?"), append(args, *upd.OrderIndex)
	}
	if len(sets) > 0 {
		query := "UPDATE subtasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
			return nil, fmt.Errorf("could not update subtask: %w", err)
		}
	}

	st, err := findSubTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit subtask update: %w", err)
	}
	return st, nil
}

// Delete は指定されたIDのサブタスクを削除します。
func (r *SubTaskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete subtask: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

// Reorder は taskID のサブタスクを ids の並び順で振り直します。他のタスクのサブタスクの id は無視されます。
func (r *SubTaskRepository) Reorder(ctx context.Context, taskID int64, ids []int64) (int, error) {
	scope := ordering.SubTasksOf(taskID)
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

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findSubTask(ctx context.Context, q rowQueryer, id int64) (*models.SubTask, error) {
	st, err := scanSubTask(q.QueryRowContext(ctx, "SELECT "+subTaskColumns+" FROM subtasks WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubTaskNotFound
		}
		return nil, fmt.Errorf("could not query subtask: %w", err)
	}
	return st, nil
}
