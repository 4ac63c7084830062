package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-designer/internal/config"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/pdf/pdftest"
)

func TestPrintVersion(t *testing.T) {
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = "1.2.3", "2024-05-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
		os.Stdout = originalStdout
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	<-done

	output := buf.String()
	for _, expected := range []string{
		"PDF Form Designer",
		"Version: 1.2.3",
		"Build Time: 2024-05-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestSetupLogging(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	t.Run("stdio debug logs to stderr", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeStdio, LogLevel: "debug"})
		assert.Equal(t, os.Stderr, log.Writer())
	})

	t.Run("stdio without debug is silent", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeStdio, LogLevel: "info"})
		assert.Equal(t, io.Discard, log.Writer())
	})

	t.Run("server mode adds file and line", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeServer, LogLevel: "info"})
		assert.Equal(t, log.LstdFlags|log.Lshortfile, log.Flags())
		assert.Equal(t, os.Stderr, log.Writer())
	})
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.Directory = t.TempDir()
	cfg.Port = 0
	return cfg
}

func TestRunApplyMode(t *testing.T) {
	cfg := testConfig(t, config.ModeApply)
	cfg.Input = "in.pdf"
	cfg.Layout = "form.fields"
	cfg.Output = "out/filled.pdf"

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Directory, "in.pdf"), pdftest.Document(pdftest.Letter), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Directory, "form.fields"), []byte(
		"# page 1 at scale 1.5\n"+
			"canvas 918 x 1188\n"+
			"text \"name\" at 72, 100 required\n"+
			"checkbox \"agree\" at 72, 160\n"+
			"dropdown \"plan\" at 72, 220 options \"Basic\", \"Pro\"\n"), 0o600))

	a, err := newApp(cfg)
	require.NoError(t, err)

	report, output, err := runApplyMode(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.workspace.Dir(), "out", "filled.pdf"), output)
	assert.Len(t, report.Exported, 3)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 0, a.store.Len(), "the batch session is discarded")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fields, err := pdf.InspectFields(data)
	require.NoError(t, err)
	assert.Len(t, fields, 3)
}

func TestRunApplyMode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		layout string
		want   string
	}{
		{name: "input outside workspace", input: "../in.pdf", layout: "form.yaml", want: "outside the workspace"},
		{name: "missing layout", input: "in.pdf", layout: "missing.yaml", want: "missing.yaml"},
		{name: "invalid layout", input: "in.pdf", layout: "bad.yaml", want: "please enter a field name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, config.ModeApply)
			cfg.Input = tt.input
			cfg.Layout = tt.layout
			require.NoError(t, os.WriteFile(filepath.Join(cfg.Directory, "in.pdf"), pdftest.Document(), 0o600))
			require.NoError(t, os.WriteFile(filepath.Join(cfg.Directory, "bad.yaml"),
				[]byte("fields:\n  - type: text\n    name: \"\"\n    x: 1\n    y: 1\n"), 0o600))

			a, err := newApp(cfg)
			require.NoError(t, err)
			_, _, err = runApplyMode(context.Background(), a)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, filepath.Join(cfg.Directory, cfg.Output))
		})
	}
}

func TestHTTPServer_Routes(t *testing.T) {
	a, err := newApp(testConfig(t, config.ModeServer))
	require.NoError(t, err)
	srv, err := a.httpServer()
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{"/api/stats", "/api/files"} {
		resp, err = http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/mcp/sse", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
}

func TestRunServerMode_StopsOnCancel(t *testing.T) {
	a, err := newApp(testConfig(t, config.ModeServer))
	require.NoError(t, err)
	srv, err := a.httpServer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServerMode(ctx, cancel, srv)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_StdioRequiresWorkspace(t *testing.T) {
	cfg := testConfig(t, config.ModeStdio)
	cfg.Directory = ""

	err := run(context.Background(), func() {}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace directory cannot be empty")
}
