// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), "line: %s", line)
		out = append(out, m)
	}
	return out
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", &buf)

	l.Info("hidden")
	l.Warn("shown")
	l.Errorf("also %s", "shown")
	require.NoError(t, l.Flush())

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "also shown", lines[1]["message"])
	assert.Contains(t, lines[0], "datetime")
	assert.Contains(t, lines[0], "level")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New("chatty", &buf)

	l.Debug("hidden")
	l.Info("shown")
	require.NoError(t, l.Flush())

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestWithFields(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	var buf bytes.Buffer
	l := New("debug", &buf)
	Set(l)

	WarnWithFields("key fetch failed", Fields{"status": 500})
	require.NoError(t, l.Flush())

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	assert.Equal(t, "key fetch failed", lines[0]["message"])
	assert.EqualValues(t, 500, lines[0]["status"])
}

func TestUseFile(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	path := filepath.Join(t.TempDir(), "logs", "fredchat.log")
	require.NoError(t, UseFile("info", path))

	L().Info("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
