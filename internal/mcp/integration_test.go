package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-designer/internal/config"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
)

type rpcResult struct {
	Result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
}

type rpcClient struct {
	t      *testing.T
	server *Server
	nextID int
}

func (c *rpcClient) send(method string, params any) rpcResult {
	c.t.Helper()
	c.nextID++
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      c.nextID,
		"method":  method,
		"params":  params,
	})
	require.NoError(c.t, err)

	resp := c.server.mcpServer.HandleMessage(context.Background(), msg)
	require.NotNil(c.t, resp)
	raw, err := json.Marshal(resp)
	require.NoError(c.t, err)

	var out rpcResult
	require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (c *rpcClient) tool(name string, args map[string]any) (string, bool) {
	c.t.Helper()
	res := c.send("tools/call", map[string]any{"name": name, "arguments": args})
	require.NotEmpty(c.t, res.Result.Content, "tool %s returned no content", name)
	return res.Result.Content[0].Text, res.Result.IsError
}

func newRPCClient(t *testing.T) (*rpcClient, string) {
	server, dir := newTestServer(t, config.ModeStdio)
	c := &rpcClient{t: t, server: server}
	c.send("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "integration-test", "version": "1.0.0"},
	})
	return c, dir
}

func TestServerToolsRegistration(t *testing.T) {
	c, _ := newRPCClient(t)

	res := c.send("tools/list", map[string]any{})
	var names []string
	for _, tool := range res.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"form_open_pdf",
		"form_place_field",
		"form_confirm_field",
		"form_move_field",
		"form_resize_field",
		"form_delete_field",
		"form_list_fields",
		"form_apply_layout",
		"form_save_layout",
		"form_export_pdf",
		"form_inspect_pdf",
		"form_list_files",
	}, names)
}

func TestServerIntegration(t *testing.T) {
	c, dir := newRPCClient(t)

	text, isErr := c.tool("form_open_pdf", map[string]any{"path": "form.pdf"})
	require.False(t, isErr, text)
	m := sessionLine.FindStringSubmatch(text)
	require.Len(t, m, 2)
	id := m[1]

	for i, name := range []string{"first_name", "last_name", "email"} {
		text, isErr := c.tool("form_place_field", map[string]any{
			"session_id": id,
			"type":       "text",
			"x":          72,
			"y":          100 + 50*i,
			"name":       name,
		})
		require.False(t, isErr, text)
	}
	text, isErr = c.tool("form_place_field", map[string]any{
		"session_id": id, "type": "checkbox", "x": 72, "y": 300, "name": "subscribe",
	})
	require.False(t, isErr, text)

	text, isErr = c.tool("form_resize_field", map[string]any{"session_id": id, "field_id": 3, "width": 400, "height": 30})
	require.False(t, isErr, text)
	text, isErr = c.tool("form_delete_field", map[string]any{"session_id": id, "field_id": 2})
	require.False(t, isErr, text)

	text, isErr = c.tool("form_list_fields", map[string]any{"session_id": id, "format": "yaml"})
	require.False(t, isErr, text)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saved.yaml"), []byte(text), 0o600))

	text, isErr = c.tool("form_export_pdf", map[string]any{"session_id": id, "path": "signup.pdf"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Exported 3 field(s)")

	data, err := os.ReadFile(filepath.Join(dir, "signup.pdf"))
	require.NoError(t, err)
	fields, err := pdf.InspectFields(data)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	byName := map[string]pdf.FormField{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	assert.Equal(t, pdf.FormFieldCheckbox, byName["subscribe"].Type)
	// 400 canvas pixels at scale 1.5
	assert.InDelta(t, 400/1.5, byName["email"].Rect.Width, 0.01)

	// the saved layout reproduces the same form in a fresh session
	text, isErr = c.tool("form_open_pdf", map[string]any{"path": "form.pdf"})
	require.False(t, isErr, text)
	second := sessionLine.FindStringSubmatch(text)[1]
	text, isErr = c.tool("form_apply_layout", map[string]any{"session_id": second, "path": "saved.yaml"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Applied 3 field(s)")

	text, isErr = c.tool("form_list_fields", map[string]any{"session_id": second})
	require.False(t, isErr, text)
	for _, name := range []string{"first_name", "email", "subscribe"} {
		assert.Contains(t, text, fmt.Sprintf("%q", name))
	}
	assert.NotContains(t, text, "last_name")
}

func TestServerErrorHandling(t *testing.T) {
	c, _ := newRPCClient(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{name: "unknown session", tool: "form_list_fields", args: map[string]any{"session_id": "gone"}, want: "session not found"},
		{name: "path escape", tool: "form_inspect_pdf", args: map[string]any{"path": "../../etc/passwd"}, want: "outside the workspace"},
		{name: "not a pdf", tool: "form_open_pdf", args: map[string]any{"path": "."}, want: "error loading PDF"},
		{name: "unknown file kind", tool: "form_list_files", args: map[string]any{"kind": "image"}, want: "unknown kind"},
		{name: "missing session id", tool: "form_export_pdf", args: map[string]any{}, want: "session_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := c.tool(tt.tool, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}
}
