// FILE: src/internal/uploader/file_test.go
package uploader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"arrowship/src/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransportSend(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewFileTransport(&config.UploadConfig{Transport: "file", Directory: dir}, newTestLogger())
	require.NoError(t, err)

	batch := testBatch("App Log/1")
	require.NoError(t, tr.Send(context.Background(), batch))
	require.NoError(t, tr.Send(context.Background(), testBatch("Other")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var frameFile string
	for _, e := range entries {
		assert.Equal(t, ".ashf", filepath.Ext(e.Name()))
		if frameFile == "" {
			frameFile = e.Name()
		}
	}

	// Event names are sanitized into the file name
	assert.Contains(t, frameFile, "App_Log_1")
	assert.Contains(t, frameFile, "00000000feedface")

	content, err := os.ReadFile(filepath.Join(dir, frameFile))
	require.NoError(t, err)
	assert.Equal(t, batch.Payload, content)

	stats := tr.Stats()
	assert.Equal(t, uint64(2), stats["total_written"])
}

func TestFileTransportCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "frames")
	_, err := NewFileTransport(&config.UploadConfig{Transport: "file", Directory: dir}, newTestLogger())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSanitizeEvent(t *testing.T) {
	assert.Equal(t, "AppLog", sanitizeEvent("AppLog"))
	assert.Equal(t, "app-log_2", sanitizeEvent("app-log_2"))
	assert.Equal(t, "a_b_c", sanitizeEvent("a b/c"))
	assert.Equal(t, "unnamed", sanitizeEvent(""))
}
