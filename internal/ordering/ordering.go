// Package ordering は兄弟グループ (全タスク、または1つのタスクのサブタスク) の
// order_index を採番・並び替えします。
//
// Reorder は寛容な契約です: 入力に含まれない id の order_index は変更せず、
// 存在しない id やスコープ外の id はエラーにせず無視します。
package ordering

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Policy は新規追加時の order_index の決め方です。
type Policy string

const (
	// PolicyCount は既存の兄弟数を order_index にします。削除後は既存値と衝突することがあります。
	PolicyCount Policy = "count"
	// PolicyMax は max(order_index)+1 を使います (空グループは0)。
	PolicyMax Policy = "max"
)

// ParsePolicy は設定値を Policy に変換します。空文字は PolicyCount です。
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyCount:
		return PolicyCount, nil
	case PolicyMax:
		return PolicyMax, nil
	default:
		return "", fmt.Errorf("unknown order policy %q (want %q or %q)", s, PolicyCount, PolicyMax)
	}
}

// Scope は兄弟グループを表します。
type Scope struct {
	table        string
	parentColumn string
	parentID     int64
}

// AllTasks は全タスクのスコープです。
func AllTasks() Scope {
	return Scope{table: "tasks"}
}

// SubTasksOf は taskID のサブタスクのスコープです。
func SubTasksOf(taskID int64) Scope {
	return Scope{table: "subtasks", parentColumn: "parent_task_id", parentID: taskID}
}

// Key はスコープごとのロックに使うキーです。
func (s Scope) Key() string {
	if s.parentColumn == "" {
		return s.table
	}
	return fmt.Sprintf("%s:%d", s.table, s.parentID)
}

func (s Scope) filter() (string, []any) {
	if s.parentColumn == "" {
		return "", nil
	}
	return " WHERE " + s.parentColumn + " = ?", []any{s.parentID}
}

// DBTX は *sql.DB と *sql.Tx の共通部分です。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Maintainer は採番ポリシーとスコープごとのロックを保持します。
type Maintainer struct {
	policy Policy

	mu    sync.Mutex
	locks map[string]*scopeLock
}

// scopeLock は待機中を含む利用者数が0になった時点で locks から削除されます。
type scopeLock struct {
	mu   sync.Mutex
	refs int
}

// NewMaintainer は新しい Maintainer を作成します。
func NewMaintainer(policy Policy) *Maintainer {
	if policy == "" {
		policy = PolicyCount
	}
	return &Maintainer{policy: policy, locks: make(map[string]*scopeLock)}
}

func (m *Maintainer) Policy() Policy {
	return m.policy
}

// Lock はスコープのロックを取得し、解放関数を返します。
// 同一プロセス内で同じグループへの追加・並び替えが同時に走らないようにします。
func (m *Maintainer) Lock(scope Scope) (unlock func()) {
	key := scope.Key()

	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &scopeLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// NextIndex は新しい兄弟に割り当てる order_index を返します。
func (m *Maintainer) NextIndex(ctx context.Context, q DBTX, scope Scope) (int, error) {
	where, args := scope.filter()

	var query string
	switch m.policy {
	case PolicyMax:
		query = "SELECT COALESCE(MAX(order_index) + 1, 0) FROM " + scope.table + where
	default:
		query = "SELECT COUNT(*) FROM " + scope.table + where
	}

	var next int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("compute next order index for %s: %w", scope.Key(), err)
	}
	return next, nil
}

// Reorder は ids[i] の order_index を i に設定します。スコープ内に存在しない id は無視します。
// 更新された行数を返します。
func (m *Maintainer) Reorder(ctx context.Context, q DBTX, scope Scope, ids []int64) (int, error) {
	query := "UPDATE " + scope.table + " SET order_index = ? WHERE id = ?"
	if scope.parentColumn != "" {
		query += " AND " + scope.parentColumn + " = ?"
	}

	updated := 0
	for i, id := range ids {
		args := []any{i, id}
		if scope.parentColumn != "" {
			args = append(args, scope.parentID)
		}
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return updated, fmt.Errorf("reorder %s id=%d: %w", scope.Key(), id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return updated, fmt.Errorf("could not get rows affected: %w", err)
		}
		updated += int(n)
	}
	return updated, nil
}
