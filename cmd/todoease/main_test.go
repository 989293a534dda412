package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"TODOEASE_ADDR", "TODOEASE_DB_DRIVER", "TODOEASE_DB_DSN", "TODOEASE_LOG_LEVEL",
		"TODOEASE_LOG_FORMAT", "TODOEASE_ORDER_APPEND", "TODOEASE_ALLOW_ORIGINS"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("TODOEASE_DATA_DIR", dir)
	t.Setenv("TODOEASE_LOG_LEVEL", "error")
	return dir
}

func TestRun_ImportExport(t *testing.T) {
	dir := clearEnv(t)
	ctx := context.Background()

	in := "tasks:\n  - title: from cli\n    date: \"2024-08-01\"\n    subtasks:\n      - title: step\n"
	require.NoError(t, run(ctx, []string{"import", "-"}, strings.NewReader(in), &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(dir, "todoease.db"))

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"export"}, nil, &out))
	assert.Contains(t, out.String(), "from cli")
	assert.Contains(t, out.String(), "step")

	file := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, run(ctx, []string{"export", file}, nil, &bytes.Buffer{}))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(data))
}

func TestRun_Errors(t *testing.T) {
	clearEnv(t)
	ctx := context.Background()

	assert.Error(t, run(ctx, []string{"launch"}, nil, &bytes.Buffer{}))
	assert.Error(t, run(ctx, []string{"import"}, nil, &bytes.Buffer{}))
	assert.Error(t, run(ctx, []string{"import", filepath.Join(t.TempDir(), "missing.yaml")}, nil, &bytes.Buffer{}))
	assert.Error(t, run(ctx, []string{"export", "a", "b"}, nil, &bytes.Buffer{}))
	assert.Error(t, run(ctx, []string{"-log-level", "loud"}, nil, &bytes.Buffer{}))
}

func TestRun_ServeStopsOnCancel(t *testing.T) {
	clearEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	assert.NoError(t, run(ctx, []string{"serve", "-addr", "127.0.0.1:0"}, nil, &bytes.Buffer{}))
}
