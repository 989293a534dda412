// Package logging は charmbracelet/log によるロガーを構築します。
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options はロガーの設定です。
type Options struct {
	Level           string
	Format          string
	Prefix          string
	ReportTimestamp bool
	Output          io.Writer
}

// DefaultOptions は既定の設定を返します。
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Format:          "text",
		Prefix:          "todoease",
		ReportTimestamp: true,
		Output:          os.Stderr,
	}
}

// ParseFormatter は "text", "json", "logfmt" を log.Formatter に変換します。
func ParseFormatter(name string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", name)
	}
}

// ParseLevel はレベル名を log.Level に変換します。空文字は info です。
func ParseLevel(name string) (log.Level, error) {
	if strings.TrimSpace(name) == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
}

// New は opts に従ってロガーを作成します。
func New(opts Options) (*log.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseFormatter(opts.Format)
	if err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	}), nil
}

// Discard は何も出力しないロガーを返します (テスト用)。
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
