// Package database はストアへの接続とスキーマ作成を行います。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	// DBFileName はデータディレクトリ内の SQLite ファイル名です。
	DBFileName = "todoease.db"

	defaultBusyTimeout = 5 * time.Second
)

// Options は Open の設定です。
// SQLite の場合 DSN はファイルパス、MySQL の場合は go-sql-driver の DSN です。
type Options struct {
	Driver      string
	DSN         string
	BusyTimeout time.Duration
}

// GetDSN は環境変数からMySQL接続文字列 (DSN) を構築します。
func GetDSN() string {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, name)
}

// SQLitePath はデータディレクトリ内のDBファイルのパスを返します。
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, DBFileName)
}

// sqliteDSN は time.Time を "2006-01-02 15:04:05.999999999-07:00" で書き込むよう _time_format=sqlite を付けます。
func sqliteDSN(path string, busy time.Duration) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_time_format=sqlite",
		filepath.ToSlash(path), busy.Milliseconds())
}

// Open はデータベース接続を開き、疎通確認とスキーマ作成まで行います。
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.DSN == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err = sql.Open(DriverSQLite, sqliteDSN(opts.DSN, busy))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite は単一ライター。接続を1本に絞って書き込みを直列化する
		db.SetMaxOpenConns(1)
	case DriverMySQL:
		dsn := opts.DSN
		if dsn == "" {
			dsn = GetDSN()
		}
		db, err = sql.Open(DriverMySQL, dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if err := Migrate(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Migrate はテーブルが存在しなければ作成します。
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverSQLite:
		stmts = sqliteSchema
	case DriverMySQL:
		stmts = mysqlSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
