// Package config はサーバー設定を既定値・TOMLファイル・.env・環境変数・フラグの順に読み込みます。
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"todoease/internal/database"
	"todoease/internal/logging"
	"todoease/internal/ordering"
)

const (
	// ConfigFileName はデータディレクトリ内で探す設定ファイル名です。
	ConfigFileName = "todoease.toml"

	DefaultAddr            = "127.0.0.1:8000"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config はサーバー全体の設定です。
type Config struct {
	Addr            string        `toml:"addr"`
	DataDir         string        `toml:"data_dir"`
	DBDriver        string        `toml:"db_driver"`
	DBDSN           string        `toml:"db_dsn"`
	LogLevel        string        `toml:"log_level"`
	LogFormat       string        `toml:"log_format"`
	OrderAppend     string        `toml:"order_append"`
	AllowOrigins    []string      `toml:"allow_origins"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// ConfigFile は実際に読み込んだ TOML ファイルです (なければ空)。
	ConfigFile string `toml:"-"`
}

// DefaultDataDir は TODOEASE_DATA_DIR、なければ ~/.todoease を返します。
func DefaultDataDir() string {
	if dir := os.Getenv("TODOEASE_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todoease"
	}
	return filepath.Join(home, ".todoease")
}

func setDefaults(cfg *Config) {
	cfg.Addr = DefaultAddr
	cfg.DataDir = DefaultDataDir()
	cfg.DBDriver = database.DriverSQLite
	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
	cfg.OrderAppend = string(ordering.PolicyCount)
	cfg.AllowOrigins = []string{"*"}
	cfg.ShutdownTimeout = DefaultShutdownTimeout
}

type flagValues struct {
	addr     string
	dataDir  string
	config   string
	logLevel string
}

func registerFlags(flags *flag.FlagSet) *flagValues {
	fv := &flagValues{}
	flags.StringVar(&fv.addr, "addr", "", "listen address (default "+DefaultAddr+")")
	flags.StringVar(&fv.dataDir, "data-dir", "", "directory holding the database and todoease.toml")
	flags.StringVar(&fv.config, "config", "", "path to a TOML config file")
	flags.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return fv
}

// Load は flags にフラグを登録して args を解析し、全レイヤーを合成した設定を返します。
// 結果は Validate 済みです。
func Load(flags *flag.FlagSet, args []string) (*Config, error) {
	fv := registerFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// .env は既に設定されている環境変数を上書きしない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	setDefaults(cfg)

	path, explicit := fv.config, set["config"]
	if !explicit {
		dir := cfg.DataDir
		if set["data-dir"] {
			dir = fv.dataDir
		}
		path = filepath.Join(dir, ConfigFileName)
	}
	if err := loadConfigFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	loadFromEnv(cfg)

	if set["addr"] {
		cfg.Addr = fv.addr
	}
	if set["data-dir"] {
		cfg.DataDir = fv.dataDir
	}
	if set["log-level"] {
		cfg.LogLevel = fv.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODOEASE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TODOEASE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TODOEASE_DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("TODOEASE_DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := os.Getenv("TODOEASE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODOEASE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TODOEASE_ORDER_APPEND"); v != "" {
		cfg.OrderAppend = v
	}
	if v := os.Getenv("TODOEASE_ALLOW_ORIGINS"); v != "" {
		cfg.AllowOrigins = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate は設定値の整合性を確認します。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	switch c.DBDriver {
	case database.DriverSQLite:
		if c.DataDir == "" && c.DBDSN == "" {
			return errors.New("data_dir must not be empty")
		}
	case database.DriverMySQL:
	default:
		return fmt.Errorf("unknown db_driver %q (want %q or %q)", c.DBDriver, database.DriverSQLite, database.DriverMySQL)
	}
	if _, err := ordering.ParsePolicy(c.OrderAppend); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := logging.ParseFormatter(c.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if len(c.AllowOrigins) == 0 {
		return errors.New("allow_origins must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// DatabaseOptions は database.Open に渡す設定を返します。
// SQLite で DSN が空の場合はデータディレクトリ内の todoease.db を使います。
func (c *Config) DatabaseOptions() database.Options {
	dsn := c.DBDSN
	if c.DBDriver == database.DriverSQLite && dsn == "" {
		dsn = database.SQLitePath(c.DataDir)
	}
	return database.Options{Driver: c.DBDriver, DSN: dsn}
}

// OrderPolicy は OrderAppend を ordering.Policy に変換します。Validate 済みであること。
func (c *Config) OrderPolicy() ordering.Policy {
	p, _ := ordering.ParsePolicy(c.OrderAppend)
	return p
}
