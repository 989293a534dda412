package database

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT    NOT NULL,
		description TEXT    NOT NULL DEFAULT '',
		completed   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT    NOT NULL,
		task_date   TEXT    NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_order_index ON tasks(order_index)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_task_date ON tasks(task_date)`,
	`CREATE TABLE IF NOT EXISTS subtasks (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		title          TEXT    NOT NULL,
		completed      INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT    NOT NULL,
		order_index    INTEGER NOT NULL DEFAULT 0,
		parent_task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subtasks_parent ON subtasks(parent_task_id, order_index)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id          INT AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  DATETIME(6) NOT NULL,
		task_date   DATE NOT NULL,
		order_index INT NOT NULL DEFAULT 0,
		INDEX idx_tasks_order_index (order_index),
		INDEX idx_tasks_task_date (task_date)
	)`,
	`CREATE TABLE IF NOT EXISTS subtasks (
		id             INT AUTO_INCREMENT PRIMARY KEY,
		title          VARCHAR(255) NOT NULL,
		completed      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     DATETIME(6) NOT NULL,
		order_index    INT NOT NULL DEFAULT 0,
		parent_task_id INT NOT NULL,
		INDEX idx_subtasks_parent (parent_task_id, order_index),
		FOREIGN KEY (parent_task_id) REFERENCES tasks(id) ON DELETE CASCADE
	)`,
}
