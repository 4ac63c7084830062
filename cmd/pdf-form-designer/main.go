package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/a3tai/pdf-form-designer/internal/config"
	"github.com/a3tai/pdf-form-designer/internal/editor"
	"github.com/a3tai/pdf-form-designer/internal/layoutfile"
	"github.com/a3tai/pdf-form-designer/internal/mcp"
	"github.com/a3tai/pdf-form-designer/internal/pdf"
	"github.com/a3tai/pdf-form-designer/internal/web"
	"github.com/a3tai/pdf-form-designer/internal/workspace"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const shutdownTimeout = 5 * time.Second

// setupLogging configures logging based on the run mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
		return
	}
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// app holds the components shared by every mode
type app struct {
	cfg       *config.Config
	workspace *workspace.Workspace
	service   *pdf.Service
	store     *editor.Store
}

func newApp(cfg *config.Config) (*app, error) {
	ws, err := workspace.New(cfg.Directory)
	if err != nil {
		return nil, err
	}
	service := pdf.NewService(cfg.MaxFileSize, cfg.IsDebug())
	return &app{
		cfg:       cfg,
		workspace: ws,
		service:   service,
		store:     editor.NewStore(service, cfg.MaxSessions, cfg.Scale),
	}, nil
}

// httpServer builds the editor with the MCP SSE transport mounted next to it
func (a *app) httpServer() (*http.Server, error) {
	editorServer, err := web.NewServer(a.store, web.Options{
		OutputName:    a.cfg.Output,
		MaxUploadSize: a.cfg.MaxFileSize,
		Debug:         a.cfg.IsDebug(),
		Workspace:     a.workspace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}

	mcpServer, err := mcp.NewServer(a.cfg, a.store, a.workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	editorServer.Mount(mcp.BasePath+"/", mcpServer.SSEHandler("http://"+a.cfg.Address()))

	return &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           editorServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// runServerMode serves HTTP until a signal arrives or the listener fails
func runServerMode(ctx context.Context, cancel context.CancelFunc, srv *http.Server) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		log.Printf("Form designer listening on http://%s", srv.Addr)
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()
	case <-ctx.Done():
	case err := <-serverErrCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// open SSE streams never go idle
		log.Printf("Forcing shutdown: %v", err)
		_ = srv.Close()
	}

	log.Println("Server stopped successfully")
	return nil
}

// runStdioMode serves MCP until the parent closes stdin
func runStdioMode(ctx context.Context, a *app) error {
	server, err := mcp.NewServer(a.cfg, a.store, a.workspace)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

// runApplyMode places the fields of a layout file on the input PDF and
// writes the result
func runApplyMode(ctx context.Context, a *app) (*pdf.ExportReport, string, error) {
	input, err := a.workspace.Resolve(a.cfg.Input)
	if err != nil {
		return nil, "", err
	}
	layoutPath, err := a.workspace.Resolve(a.cfg.Layout)
	if err != nil {
		return nil, "", err
	}
	output, err := a.workspace.Resolve(a.cfg.Output)
	if err != nil {
		return nil, "", err
	}

	doc, err := layoutfile.Load(layoutPath)
	if err != nil {
		return nil, "", err
	}
	session, err := a.store.Open(input)
	if err != nil {
		return nil, "", err
	}
	defer a.store.Remove(session.ID)

	if _, err := session.ApplyLayout(doc, true); err != nil {
		return nil, "", fmt.Errorf("cannot apply %s: %w", layoutPath, err)
	}
	report, err := session.ExportFile(ctx, output)
	if err != nil {
		return nil, "", err
	}
	return report, output, nil
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	switch cfg.Mode {
	case config.ModeStdio:
		return runStdioMode(ctx, a)
	case config.ModeApply:
		report, output, err := runApplyMode(ctx, a)
		if err != nil {
			return err
		}
		for _, f := range report.Failed {
			log.Printf("Skipped field %s: %s", f.Name, f.Error)
		}
		fmt.Printf("Wrote %d field(s) to %s\n", len(report.Exported), output)
		return nil
	default:
		srv, err := a.httpServer()
		if err != nil {
			return err
		}
		return runServerMode(ctx, cancel, srv)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && !cfg.IsStdioMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		log.Printf("Error: %v", err)
		if cfg.IsApplyMode() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Form Designer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
