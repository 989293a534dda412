package repositories

import (
	"fmt"
	"time"

	"todoease/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// timestampLayouts は created_at の読み取りで受け付けるフォーマットです。
// _time_format=sqlite 付きの接続は先頭の形式で書き込みます。
// 付けずに作られたファイルには time.Time.String() の形式が残っています。
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// timestamp は TEXT (SQLite) と DATETIME (MySQL) の両方を time.Time として読み取ります。
type timestamp struct {
	t *time.Time
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (ts timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

const taskColumns = "id, title, description, completed, order_index, created_at, task_date"

func scanTask(scanner rowScanner) (*models.Task, error) {
	var t models.Task
	if err := scanner.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.OrderIndex, timestamp{&t.CreatedAt}, &t.TaskDate); err != nil {
		return nil, err
	}
	t.SubTasks = []*models.SubTask{}
	return &t, nil
}

const subTaskColumns = "id, title, completed, order_index, created_at, parent_task_id"

func scanSubTask(scanner rowScanner) (*models.SubTask, error) {
	var st models.SubTask
	if err := scanner.Scan(&st.ID, &st.Title, &st.Completed, &st.OrderIndex, timestamp{&st.CreatedAt}, &st.ParentTaskID); err != nil {
		return nil, err
	}
	return &st, nil
}
