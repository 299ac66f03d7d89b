package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	cfg, err := config.ReadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Worker.PoolSize = 2
	return cfg
}

func entries(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()

	var out []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry["msg"] == msg {
			out = append(out, entry)
		}
	}
	return out
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)

	var buf bytes.Buffer
	err := run(context.Background(), cfg, runOptions{tasks: 3, user: "user-1"}, &buf)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "user-1")

	tasks := entries(t, &buf, "task running")
	require.Len(t, tasks, 3)

	requestID := tasks[0]["request-id"]
	require.NotEmpty(t, requestID)
	taskIDs := map[any]bool{}
	for _, e := range tasks {
		assert.Equal(t, requestID, e["request-id"])
		taskIDs[e["task-id"]] = true
	}
	assert.Len(t, taskIDs, 3)
}

func TestRunSkipBaggage(t *testing.T) {
	cfg := testConfig(t)

	var buf bytes.Buffer
	err := run(context.Background(), cfg, runOptions{tasks: 1, skipBaggage: true}, &buf)
	require.NoError(t, err)

	tasks := entries(t, &buf, "task running")
	require.Len(t, tasks, 2)

	var todos int
	for _, e := range tasks {
		if additional, ok := e["additional"].(map[string]any); ok && additional["todo"] != nil {
			todos++
		}
	}
	assert.Equal(t, 1, todos)
}

func TestRunCrashOnTODO(t *testing.T) {
	cfg := testConfig(t)
	cfg.Baggage.CrashOnTODO = true

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_ = run(context.Background(), cfg, runOptions{tasks: 1, skipBaggage: true}, &bytes.Buffer{})
	}()

	_, ok := recovered.(*baggage.TODOError)
	assert.True(t, ok, "expected *baggage.TODOError, got %T", recovered)
}
