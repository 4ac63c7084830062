package mcp

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-designer/internal/config"
	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/pdf/pdftest"
	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T, mode string) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.pdf"), pdftest.Document(pdftest.Letter), 0o600))

	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.Directory = dir
	cfg.Version = "1.0.0"
	cfg.ServerName = "test-server"

	ws, err := workspace.New(dir)
	require.NoError(t, err)
	store := editor.NewStore(pdf.NewService(cfg.MaxFileSize, false), cfg.MaxSessions, cfg.Scale)

	server, err := NewServer(cfg, store, ws)
	require.NoError(t, err)
	return server, dir
}

func call(t *testing.T, h toolHandler, args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := h(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return extractTextFromResult(result), result.IsError
}

var sessionLine = regexp.MustCompile(`Session: (\S+)`)

func openSession(t *testing.T, s *Server) string {
	t.Helper()
	text, isErr := call(t, s.handleOpenPDF, map[string]interface{}{"path": "form.pdf"})
	require.False(t, isErr, text)
	m := sessionLine.FindStringSubmatch(text)
	require.Len(t, m, 2, text)
	return m[1]
}

func TestNewServer(t *testing.T) {
	ws, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	store := editor.NewStore(pdf.NewService(1024, false), 1, 1)
	cfg := config.DefaultConfig()

	tests := []struct {
		name    string
		cfg     *config.Config
		store   *editor.Store
		ws      *workspace.Workspace
		wantErr string
	}{
		{name: "valid", cfg: cfg, store: store, ws: ws},
		{name: "nil config", store: store, ws: ws, wantErr: "config cannot be nil"},
		{name: "nil store", cfg: cfg, ws: ws, wantErr: "store cannot be nil"},
		{name: "nil workspace", cfg: cfg, store: store, wantErr: "workspace cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.cfg, tt.store, tt.ws)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, server)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.cfg, server.config)
			assert.Same(t, tt.store, server.store)
			assert.NotNil(t, server.mcpServer)
		})
	}
}

func TestServer_HandleOpenPDF(t *testing.T) {
	server, dir := newTestServer(t, config.ModeStdio)

	text, isErr := call(t, server.handleOpenPDF, map[string]interface{}{"path": "form.pdf"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Opened PDF: form.pdf")
	assert.Contains(t, text, "Pages: 1")
	assert.Contains(t, text, "Canvas: 918 x 1188 pixels at scale 1.5")
	assert.Equal(t, 1, server.store.Len())

	text, isErr = call(t, server.handleOpenPDF, map[string]interface{}{"path": filepath.Join(dir, "form.pdf")})
	assert.False(t, isErr, text)

	text, isErr = call(t, server.handleOpenPDF, map[string]interface{}{"path": "../outside.pdf"})
	assert.True(t, isErr)
	assert.Contains(t, text, "outside the workspace")

	text, isErr = call(t, server.handleOpenPDF, map[string]interface{}{"path": "missing.pdf"})
	assert.True(t, isErr)
	assert.Contains(t, text, "error loading PDF")

	_, isErr = call(t, server.handleOpenPDF, map[string]interface{}{})
	assert.True(t, isErr)
}

func TestServer_HandlePlaceField(t *testing.T) {
	server, _ := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)

	text, isErr := call(t, server.handlePlaceField, map[string]interface{}{
		"session_id": id,
		"type":       "text",
		"x":          float64(900),
		"y":          float64(10),
		"name":       "email",
		"required":   true,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, `#1 text "email" at 718,10 size 200 x 30 required`)

	text, isErr = call(t, server.handlePlaceField, map[string]interface{}{
		"session_id": id,
		"type":       "dropdown",
		"x":          float64(10),
		"y":          float64(100),
		"name":       "size",
		"options":    "S\n\nM\nL",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "options [S, M, L]")

	t.Run("validation failure leaves editor idle", func(t *testing.T) {
		text, isErr := call(t, server.handlePlaceField, map[string]interface{}{
			"session_id": id,
			"type":       "checkbox",
			"x":          float64(0),
			"y":          float64(0),
			"name":       "   ",
		})
		assert.True(t, isErr)
		assert.Contains(t, text, "please enter a field name")

		session, err := server.store.Get(id)
		require.NoError(t, err)
		snap := session.Snapshot()
		assert.Equal(t, "idle", snap.Mode)
		assert.Len(t, snap.Fields, 2)
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, isErr := call(t, server.handlePlaceField, map[string]interface{}{"session_id": id, "type": "radio", "x": 1.0, "y": 1.0})
		assert.True(t, isErr)
		_, isErr = call(t, server.handlePlaceField, map[string]interface{}{"session_id": id, "type": "text", "y": 1.0})
		assert.True(t, isErr)
		text, isErr := call(t, server.handlePlaceField, map[string]interface{}{"session_id": "nope", "type": "text", "x": 1.0, "y": 1.0})
		assert.True(t, isErr)
		assert.Contains(t, text, "session not found")
	})
}

func TestServer_HandleConfirmField(t *testing.T) {
	server, _ := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)
	session, err := server.store.Get(id)
	require.NoError(t, err)

	// a placement started in the browser editor
	require.NoError(t, session.Do(func(e *layout.Editor) error {
		if err := e.BeginPlacing(layout.FieldTypeDropdown); err != nil {
			return err
		}
		_, err := e.Click(layout.Point{X: 50, Y: 50})
		return err
	}))

	text, isErr := call(t, server.handleConfirmField, map[string]interface{}{"session_id": id, "name": "country"})
	assert.True(t, isErr)
	assert.Contains(t, text, "at least one option")

	text, isErr = call(t, server.handleConfirmField, map[string]interface{}{
		"session_id": id,
		"name":       "country",
		"options":    "Canada\nMexico",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, `dropdown "country"`)

	text, isErr = call(t, server.handleConfirmField, map[string]interface{}{"session_id": id, "name": "again"})
	assert.True(t, isErr)
	assert.Contains(t, text, "no field is being configured")

	text, isErr = call(t, server.handleConfirmField, map[string]interface{}{"session_id": id, "cancel": true})
	assert.False(t, isErr)
	assert.Contains(t, text, "discarded")
}

func TestServer_HandleEditFields(t *testing.T) {
	server, _ := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)
	_, isErr := call(t, server.handlePlaceField, map[string]interface{}{
		"session_id": id, "type": "text", "x": 10.0, "y": 10.0, "name": "name",
	})
	require.False(t, isErr)

	text, isErr := call(t, server.handleMoveField, map[string]interface{}{
		"session_id": id, "field_id": 1.0, "x": 100.0, "y": 5000.0,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "at 100,1158")

	text, isErr = call(t, server.handleResizeField, map[string]interface{}{
		"session_id": id, "field_id": 1.0, "width": 5.0, "height": 300.0,
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "size 20 x 30", "height is capped by the canvas edge")

	text, isErr = call(t, server.handleMoveField, map[string]interface{}{
		"session_id": id, "field_id": 7.0, "x": 1.0, "y": 1.0,
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "field not found")

	text, isErr = call(t, server.handleDeleteField, map[string]interface{}{"session_id": id, "field_id": 1.0})
	assert.False(t, isErr)
	assert.Equal(t, "Removed field 1", text)

	text, isErr = call(t, server.handleDeleteField, map[string]interface{}{"session_id": id, "field_id": 1.0})
	assert.False(t, isErr)
	assert.Contains(t, text, "nothing removed")
}

func TestServer_HandleListFields(t *testing.T) {
	server, _ := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)

	text, _ := call(t, server.handleListFields, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "No fields")

	_, isErr := call(t, server.handlePlaceField, map[string]interface{}{
		"session_id": id, "type": "checkbox", "x": 30.0, "y": 40.0, "name": "agree", "required": true,
	})
	require.False(t, isErr)

	text, _ = call(t, server.handleListFields, map[string]interface{}{"session_id": id})
	assert.Contains(t, text, "Fields in form.pdf (canvas 918 x 1188)")
	assert.Contains(t, text, `#1 checkbox "agree" at 30,40 size 20 x 20 required`)

	text, isErr = call(t, server.handleListFields, map[string]interface{}{"session_id": id, "format": "fields"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "canvas 918 x 1188")
	assert.Contains(t, text, `checkbox "agree" at 30, 40`)

	_, isErr = call(t, server.handleListFields, map[string]interface{}{"session_id": id, "format": "xml"})
	assert.True(t, isErr)
}

func TestServer_HandleApplyLayout(t *testing.T) {
	server, dir := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)

	layoutFile := filepath.Join(dir, "form.fields")
	require.NoError(t, os.WriteFile(layoutFile, []byte(
		"canvas 918 x 1188\n"+
			"text \"first\" at 10, 10\n"+
			"text \"last\" at 10, 50 size 300 x 30 required\n"), 0o600))

	text, isErr := call(t, server.handleApplyLayout, map[string]interface{}{"session_id": id, "path": "form.fields"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Applied 2 field(s)")

	text, isErr = call(t, server.handleApplyLayout, map[string]interface{}{"session_id": id, "path": "form.fields", "replace": true})
	require.False(t, isErr, text)

	session, err := server.store.Get(id)
	require.NoError(t, err)
	assert.Len(t, session.Snapshot().Fields, 2)

	_, isErr = call(t, server.handleApplyLayout, map[string]interface{}{"session_id": id, "path": "missing.yaml"})
	assert.True(t, isErr)

	text, isErr = call(t, server.handleSaveLayout, map[string]interface{}{"session_id": id, "path": "saved/form.json"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Saved 2 field(s)")
	saved, err := layoutfile.Load(filepath.Join(dir, "saved", "form.json"))
	require.NoError(t, err)
	require.Len(t, saved.Fields, 2)
	assert.Equal(t, "last", saved.Fields[1].Name)

	text, isErr = call(t, server.handleSaveLayout, map[string]interface{}{"session_id": id, "path": "form.txt"})
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown layout format")
}

func TestServer_HandleExportAndInspect(t *testing.T) {
	server, dir := newTestServer(t, config.ModeStdio)
	id := openSession(t, server)

	text, isErr := call(t, server.handleExportPDF, map[string]interface{}{"session_id": id})
	assert.True(t, isErr)
	assert.Contains(t, text, "add at least one field")

	for _, args := range []map[string]interface{}{
		{"session_id": id, "type": "text", "x": 72.0, "y": 100.0, "name": "full_name", "required": true},
		{"session_id": id, "type": "dropdown", "x": 72.0, "y": 200.0, "name": "country", "options": "Canada\nMexico"},
	} {
		text, isErr := call(t, server.handlePlaceField, args)
		require.False(t, isErr, text)
	}

	text, isErr = call(t, server.handleExportPDF, map[string]interface{}{"session_id": id})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Exported 2 field(s)")
	assert.FileExists(t, filepath.Join(dir, config.DefaultOutput))

	text, isErr = call(t, server.handleExportPDF, map[string]interface{}{"session_id": id, "path": "out/custom.pdf"})
	require.False(t, isErr, text)
	assert.FileExists(t, filepath.Join(dir, "out", "custom.pdf"))

	_, isErr = call(t, server.handleExportPDF, map[string]interface{}{"session_id": id, "path": "/etc/form.pdf"})
	assert.True(t, isErr)

	text, isErr = call(t, server.handleInspectPDF, map[string]interface{}{"path": config.DefaultOutput})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 2 form field(s)")
	assert.Contains(t, text, "full_name (text) required")
	assert.Contains(t, text, "Options: Canada, Mexico")

	text, isErr = call(t, server.handleInspectPDF, map[string]interface{}{"path": "form.pdf"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "No form fields found")
}

func TestFormatField(t *testing.T) {
	f := &layout.Field{ID: 3, Type: layout.FieldTypeDropdown, Name: "size", X: 1.5, Y: 2, Width: 200, Height: 30, Options: []string{"S", "M"}}
	assert.Equal(t, "#3 dropdown \"size\" at 1.5,2 size 200 x 30 options [S, M]\n", formatField(f))
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		// Handle pointer to TextContent as well
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func TestServer_HandleListFiles(t *testing.T) {
	server, dir := newTestServer(t, config.ModeStdio)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "signup.yaml"), []byte("fields: []\n"), 0o600))

	text, isErr := call(t, server.handleListFiles, map[string]interface{}{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 2 file(s)")
	assert.Contains(t, text, "- form.pdf (pdf,")
	assert.Contains(t, text, "- signup.yaml (layout,")

	text, isErr = call(t, server.handleListFiles, map[string]interface{}{"kind": "layout"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Found 1 file(s)")
	assert.NotContains(t, text, "form.pdf")

	text, isErr = call(t, server.handleListFiles, map[string]interface{}{"query": "invoice"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "No matching files")
}
