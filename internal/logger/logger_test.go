package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for the duration of a test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug when verbose", true, func() { Debug("page %d of %s", 2, "issues") }, "[DEBUG] page 2 of issues\n"},
		{"debug when quiet", false, func() { Debug("page %d", 2) }, ""},
		{"info when verbose", true, func() { Info("sync %s", "github") }, "[INFO] sync github\n"},
		{"info when quiet", false, func() { Info("sync") }, ""},
		{"warn when verbose", true, func() { Warn("retrying %s", "list repos") }, "[WARN] retrying list repos\n"},
		{"warn when quiet", false, func() { Warn("size mismatch for %s", "a.txt") }, "[WARN] size mismatch for a.txt\n"},
		{"error when quiet", false, func() { Error("sync failed: %s", "boom") }, "[ERROR] sync failed: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Pass")
	assert.Equal(t, "\n=== Pass ===\n", buf.String())

	buf = capture(t, false)
	Section("Pass")
	assert.Empty(t, buf.String())
}

func TestWith_CarriesFields(t *testing.T) {
	buf := capture(t, true)

	With("source", "github").Debugf("page %d", 2)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] page 2")
	assert.Contains(t, out, `"source": "github"`)
}

func TestWith_SilentWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	With("source", "github").Infof("hidden")

	assert.Empty(t, buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(n%2 == 0)
			Debug("message %d", n)
			_ = IsVerbose()
		}(i)
	}
	wg.Wait()
}
