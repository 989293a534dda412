// Package models は Task / SubTask と API の入出力型を定義します。
package models

import (
	"time"
)

// Task はトップレベルのToDo項目です。
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	OrderIndex  int        `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
	TaskDate    Date       `json:"task_date"`
	SubTasks    []*SubTask `json:"subtasks"`
}

// SubTask は1つの Task に属する子項目です。
type SubTask struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Completed    bool      `json:"completed"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
	ParentTaskID int64     `json:"parent_task_id"`
}

// TaskCreateRequest は POST /api/tasks のリクエストボディです。
// order_index は受け付けますが、常に末尾の位置で上書きされます。
type TaskCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	OrderIndex  *int   `json:"order_index"`
	TaskDate    *Date  `json:"task_date"`
}

// TaskUpdateRequest は PUT /api/tasks/:id の部分更新です。nil のフィールドは変更しません。
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	OrderIndex  *int    `json:"order_index"`
	TaskDate    *Date   `json:"task_date"`
}

// IsEmpty は更新対象のフィールドが1つもない場合に true を返します。
func (r TaskUpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Completed == nil && r.OrderIndex == nil && r.TaskDate == nil
}

// SubTaskCreateRequest は POST /api/tasks/:id/subtasks のリクエストボディです。
type SubTaskCreateRequest struct {
	Title      string `json:"title" binding:"required"`
	Completed  bool   `json:"completed"`
	OrderIndex *int   `json:"order_index"`
}

// SubTaskUpdateRequest は PUT /api/subtasks/:id の部分更新です。
type SubTaskUpdateRequest struct {
	Title      *string `json:"title"`
	Completed  *bool   `json:"completed"`
	OrderIndex *int    `json:"order_index"`
}

// IsEmpty は更新対象のフィールドが1つもない場合に true を返します。
func (r SubTaskUpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.Completed == nil && r.OrderIndex == nil
}
