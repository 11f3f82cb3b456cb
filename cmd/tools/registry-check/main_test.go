package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedRegistry = "../../../configs/activity-registry.json"

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	fn()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

// ==========================
// Commands
// ==========================

func TestHelp(t *testing.T) {
	out := captureStdout(t, help)

	assert.Contains(t, out, "Usage: registry-check <command> [flags]")
	assert.Contains(t, out, "check-input")
}

func TestValidateRegistry_Shipped(t *testing.T) {
	var err error
	out := captureStdout(t, func() { err = validateRegistry(shippedRegistry) })

	require.NoError(t, err)
	assert.Contains(t, out, "Registry validation passed")
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	tests := []struct {
		name     string
		taskType string
		vars     string
		wantErr  bool
	}{
		{
			name:     "accepted",
			taskType: "classify-questions",
			vars:     `{"env":"dev","surveyKey":"s1"}`,
		},
		{
			name:     "too many row dimensions",
			taskType: "aggregate-pivot",
			vars:     `{"env":"dev","surveyKey":"s1","pivot":{"rowDims":["a","b","c"]}}`,
			wantErr:  true,
		},
		{
			name:     "unknown task type",
			taskType: "nope",
			vars:     `{}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkInput(shippedRegistry, tt.taskType, write(tt.name+".json", tt.vars))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
