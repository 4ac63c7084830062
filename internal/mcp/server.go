package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-form-designer/internal/config"
	"github.com/a3tai/pdf-form-designer/internal/descriptions"
	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/layout"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

// BasePath is where the SSE transport is mounted in server mode
const BasePath = "/mcp"

const defaultFileLimit = 50

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	store     *editor.Store
	workspace *workspace.Workspace
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, store *editor.Store, ws *workspace.Workspace) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list never changes
	)

	s := &Server{
		config:    cfg,
		store:     store,
		workspace: ws,
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s, nil
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by form_open_pdf"),
	)
}

func fieldIDParam() mcp.ToolOption {
	return mcp.WithNumber("field_id",
		mcp.Required(),
		mcp.Description("Field id as reported by form_list_fields"),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"form_open_pdf",
		mcp.WithDescription(descriptions.FormOpenPDFDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, relative to the workspace directory or absolute inside it"),
		),
	), s.handleOpenPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_place_field",
		mcp.WithDescription(descriptions.FormPlaceFieldDescription),
		sessionParam(),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Field type"),
			mcp.Enum(string(layout.FieldTypeText), string(layout.FieldTypeCheckbox), string(layout.FieldTypeDropdown)),
		),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge in canvas pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge in canvas pixels")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique field name")),
		mcp.WithBoolean("required", mcp.Description("Mark the field as required")),
		mcp.WithString("options", mcp.Description("Dropdown options, one per line")),
	), s.handlePlaceField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_confirm_field",
		mcp.WithDescription(descriptions.FormConfirmFieldDescription),
		sessionParam(),
		mcp.WithString("name", mcp.Description("Unique field name")),
		mcp.WithBoolean("required", mcp.Description("Mark the field as required")),
		mcp.WithString("options", mcp.Description("Dropdown options, one per line")),
		mcp.WithBoolean("cancel", mcp.Description("Discard the pending field instead of confirming it")),
	), s.handleConfirmField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_move_field",
		mcp.WithDescription(descriptions.FormMoveFieldDescription),
		sessionParam(),
		fieldIDParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("New left edge in canvas pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("New top edge in canvas pixels")),
	), s.handleMoveField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_resize_field",
		mcp.WithDescription(descriptions.FormResizeFieldDescription),
		sessionParam(),
		fieldIDParam(),
		mcp.WithNumber("width", mcp.Required(), mcp.Description("New width in canvas pixels")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("New height in canvas pixels")),
	), s.handleResizeField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_delete_field",
		mcp.WithDescription(descriptions.FormDeleteFieldDescription),
		sessionParam(),
		fieldIDParam(),
	), s.handleDeleteField)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_list_fields",
		mcp.WithDescription(descriptions.FormListFieldsDescription),
		sessionParam(),
		mcp.WithString("format",
			mcp.Description("Output as a plain listing (default) or as a layout file"),
			mcp.Enum("text", string(layoutfile.FormatYAML), string(layoutfile.FormatJSON), string(layoutfile.FormatFields)),
		),
	), s.handleListFields)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_apply_layout",
		mcp.WithDescription("Add the fields of a saved layout file (.yaml, .json or .fields) to a session. "+
			"The whole layout is validated first; nothing changes when any field is rejected."),
		sessionParam(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Layout file inside the workspace")),
		mcp.WithBoolean("replace", mcp.Description("Drop the current fields first")),
	), s.handleApplyLayout)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_save_layout",
		mcp.WithDescription("Save the confirmed fields of a session as a layout file. "+
			"The format follows the extension: .yaml, .yml, .json or .fields."),
		sessionParam(),
		mcp.WithString("path", mcp.Required(), mcp.Description("Layout file inside the workspace")),
	), s.handleSaveLayout)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_export_pdf",
		mcp.WithDescription(descriptions.FormExportPDFDescription),
		sessionParam(),
		mcp.WithString("path", mcp.Description("Output path inside the workspace (defaults to the configured output name)")),
	), s.handleExportPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_inspect_pdf",
		mcp.WithDescription(descriptions.FormInspectPDFDescription),
		mcp.WithString("path", mcp.Required(), mcp.Description("PDF path inside the workspace")),
	), s.handleInspectPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		"form_list_files",
		mcp.WithDescription(descriptions.FormListFilesDescription),
		mcp.WithString("query", mcp.Description("Words to match against file names")),
		mcp.WithString("kind",
			mcp.Description("Restrict to PDFs or layout files"),
			mcp.Enum(string(workspace.KindPDF), string(workspace.KindLayout)),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum number of files (default 50)")),
	), s.handleListFiles)
}

// Handler functions

func (s *Server) handleOpenPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.resolve(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.store.Open(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.config.IsDebug() {
		log.Printf("Opened %s as session %s", path, session.ID)
	}

	snap := session.Snapshot()
	text := fmt.Sprintf("Opened PDF: %s\n", snap.Document)
	text += fmt.Sprintf("Session: %s\n", snap.ID)
	text += fmt.Sprintf("Pages: %d (fields are placed on page 1)\n", snap.PageCount)
	text += fmt.Sprintf("Page size: %g x %g points\n", snap.PageSize.Width, snap.PageSize.Height)
	text += fmt.Sprintf("Canvas: %g x %g pixels at scale %g\n", snap.Canvas.Width, snap.Canvas.Height, snap.Scale)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePlaceField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeName, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldType, err := layout.ParseFieldType(typeName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := request.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := request.GetString("name", "")
	required := request.GetBool("required", false)
	options := layout.SplitOptions(request.GetString("options", ""))

	var placed *layout.Field
	err = session.Do(func(e *layout.Editor) error {
		if err := e.BeginPlacing(fieldType); err != nil {
			return err
		}
		if _, err := e.Click(layout.Point{X: x, Y: y}); err != nil {
			e.Cancel()
			return err
		}
		var err error
		placed, err = e.Confirm(name, required, options)
		if err != nil {
			e.Cancel()
		}
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Placed field:\n" + formatField(placed)), nil
}

func (s *Server) handleConfirmField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if request.GetBool("cancel", false) {
		_ = session.Do(func(e *layout.Editor) error {
			e.Cancel()
			return nil
		})
		return mcp.NewToolResultText("Pending field discarded"), nil
	}

	var confirmed *layout.Field
	err = session.Do(func(e *layout.Editor) error {
		var err error
		confirmed, err = e.Confirm(
			request.GetString("name", ""),
			request.GetBool("required", false),
			layout.SplitOptions(request.GetString("options", "")),
		)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Confirmed field:\n" + formatField(confirmed)), nil
}

func (s *Server) handleMoveField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.editField(request, "x", "y", func(m *layout.Model, id int, a, b float64) (*layout.Field, error) {
		return m.MoveTo(id, a, b)
	})
}

func (s *Server) handleResizeField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.editField(request, "width", "height", func(m *layout.Model, id int, a, b float64) (*layout.Field, error) {
		return m.ResizeTo(id, a, b)
	})
}

// editField runs a two-argument model edit on one field of a session
func (s *Server) editField(request mcp.CallToolRequest, argA, argB string,
	edit func(m *layout.Model, id int, a, b float64) (*layout.Field, error),
) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireInt("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := request.RequireFloat(argA)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := request.RequireFloat(argB)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var updated *layout.Field
	err = session.Do(func(e *layout.Editor) error {
		f, err := edit(e.Model(), id, a, b)
		if err == nil {
			updated = f.Clone()
		}
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Updated field:\n" + formatField(updated)), nil
}

func (s *Server) handleDeleteField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireInt("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var removed bool
	_ = session.Do(func(e *layout.Editor) error {
		removed = e.Delete(id)
		return nil
	})
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("No field with id %d, nothing removed", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed field %d", id)), nil
}

func (s *Server) handleListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if name := request.GetString("format", "text"); name != "text" {
		format, err := layoutfile.ParseFormat(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := layoutfile.Encode(session.Layout(), format)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	snap := session.Snapshot()
	if len(snap.Fields) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No fields in session %s", snap.ID)), nil
	}
	text := fmt.Sprintf("Fields in %s (canvas %g x %g):\n", snap.Document, snap.Canvas.Width, snap.Canvas.Height)
	for _, f := range snap.Fields {
		text += "\n" + formatField(f)
	}
	if snap.Pending != nil {
		text += fmt.Sprintf("\nPending %s field at %g,%g awaits form_confirm_field\n", snap.Pending.Type, snap.Pending.X, snap.Pending.Y)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleApplyLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.resolve(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := layoutfile.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	placed, err := session.ApplyLayout(doc, request.GetBool("replace", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Applied %d field(s) from %s", len(placed), path)), nil
}

func (s *Server) handleSaveLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.resolve(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := session.Layout()
	if err := layoutfile.Save(path, doc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %d field(s) to %s", len(doc.Fields), path)), nil
}

func (s *Server) handleExportPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output := request.GetString("path", "")
	if output == "" {
		output = s.config.Output
	}
	path, err := s.workspace.Resolve(output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := session.ExportFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Exported %d field(s) to %s (%d bytes)\n", len(report.Exported), path, report.Size)
	for _, f := range report.Exported {
		text += fmt.Sprintf("  • %s (%s) at %.2f,%.2f size %.2f x %.2f points\n",
			f.Name, f.Type, f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height)
	}
	if len(report.Failed) > 0 {
		text += fmt.Sprintf("\n⚠️  %d field(s) skipped:\n", len(report.Failed))
		for _, f := range report.Failed {
			text += fmt.Sprintf("  • %s: %s\n", f.Name, f.Error)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleInspectPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.resolve(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	fields, err := s.store.Service().Inspect(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(fields) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No form fields found in %s", path)), nil
	}
	text := fmt.Sprintf("Found %d form field(s) in %s:\n", len(fields), path)
	for i, f := range fields {
		text += fmt.Sprintf("%d. %s (%s)", i+1, f.Name, f.Type)
		if f.Required {
			text += " required"
		}
		text += fmt.Sprintf(" at %.2f,%.2f size %.2f x %.2f\n", f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height)
		if len(f.Options) > 0 {
			text += fmt.Sprintf("   Options: %s\n", strings.Join(f.Options, ", "))
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	kind := workspace.FileKind(request.GetString("kind", ""))
	if kind != "" && kind != workspace.KindPDF && kind != workspace.KindLayout {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q, use pdf or layout", kind)), nil
	}
	limit := request.GetInt("limit", defaultFileLimit)

	files, err := s.workspace.Find(query, kind, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No matching files in %s", s.workspace.Dir())), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d file(s) in %s:\n", len(files), s.workspace.Dir())
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%s, %d bytes, modified %s)\n", f.Path, f.Kind, f.Size, f.Modified.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) session(request mcp.CallToolRequest) (*editor.Session, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, err
	}
	session, err := s.store.Get(id)
	if errors.Is(err, editor.ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %s (open the PDF again with form_open_pdf)", err, id)
	}
	return session, err
}

func (s *Server) resolve(request mcp.CallToolRequest, key string) (string, error) {
	path, err := request.RequireString(key)
	if err != nil {
		return "", err
	}
	return s.workspace.Resolve(path)
}

func formatField(f *layout.Field) string {
	text := fmt.Sprintf("#%d %s %q at %g,%g size %g x %g", f.ID, f.Type, f.Name, f.X, f.Y, f.Width, f.Height)
	if f.Required {
		text += " required"
	}
	if len(f.Options) > 0 {
		text += fmt.Sprintf(" options [%s]", strings.Join(f.Options, ", "))
	}
	return text + "\n"
}

// SSEHandler returns the SSE transport for mounting under BasePath on an
// HTTP server reachable at baseURL
func (s *Server) SSEHandler(baseURL string) http.Handler {
	return server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(baseURL),
		server.WithStaticBasePath(BasePath),
	)
}

// Run serves MCP over stdio until ctx is cancelled or stdin closes
func (s *Server) Run(ctx context.Context) error {
	if !s.config.IsStdioMode() {
		return fmt.Errorf("stdio transport requires %s mode, got %s", config.ModeStdio, s.config.Mode)
	}
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve runs the stdio transport over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		log.Printf("Starting form designer MCP server in stdio mode")
		log.Printf("Workspace: %s", s.workspace.Dir())
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	if s.config.IsDebug() {
		stdio.SetErrorLogger(log.Default())
	}
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
