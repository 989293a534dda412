// Package testutil はテスト用のデータベースとルーターを用意します。
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"todoease/internal/database"
	"todoease/internal/logging"
	"todoease/internal/models"
	"todoease/internal/ordering"
	"todoease/internal/routes"
)

// SetupTestDB は t.TempDir() に新しい SQLite データベースを作成し、スキーマを適用します。
// テスト終了時に自動で閉じられます。
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), database.DBFileName)
	db, err := database.Open(context.Background(), database.Options{
		Driver:      database.DriverSQLite,
		DSN:         path,
		BusyTimeout: time.Second,
	})
	require.NoError(t, err, "Failed to open test database")

	t.Cleanup(func() { db.Close() })
	return db
}

// SetupTestRouter はテスト用DBに接続したルーターを返します。
func SetupTestRouter(t *testing.T, policy ordering.Policy) (*gin.Engine, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := SetupTestDB(t)
	r := routes.SetupRouter(db, routes.Options{
		Logger:       logging.Discard(),
		AllowOrigins: []string{"*"},
		OrderPolicy:  policy,
	})
	return r, db
}

// DoJSON は body を JSON にしてリクエストを送り、レコーダーを返します。body が nil なら空ボディです。
func DoJSON(t *testing.T, r http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeJSON はレスポンスボディを v にデコードします。
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

// CreateTestTask は API 経由でタスクを作成します。date が空なら当日になります。
func CreateTestTask(t *testing.T, r http.Handler, title, date string) models.Task {
	t.Helper()

	body := map[string]any{"title": title}
	if date != "" {
		body["task_date"] = date
	}
	w := DoJSON(t, r, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, "create task: %s", w.Body.String())

	var task models.Task
	DecodeJSON(t, w, &task)
	return task
}

// CreateTestSubTask は API 経由でサブタスクを作成します。
func CreateTestSubTask(t *testing.T, r http.Handler, taskID int64, title string) models.SubTask {
	t.Helper()

	w := DoJSON(t, r, http.MethodPost, "/api/tasks/"+strconv.FormatInt(taskID, 10)+"/subtasks", map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, "create subtask: %s", w.Body.String())

	var st models.SubTask
	DecodeJSON(t, w, &st)
	return st
}
