package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Service handles PDF input and output for the form designer by
// orchestrating validation, loading, export and inspection
type Service struct {
	maxFileSize int64
	validator   *Validator
	exporter    *Exporter
}

// NewService creates a new PDF service with all components
func NewService(maxFileSize int64, debugMode bool) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		exporter:    NewExporter(debugMode),
	}
}

// Load validates data and returns the document it contains
func (s *Service) Load(name string, data []byte) (*Document, error) {
	if _, err := s.validator.ValidateBytes(data); err != nil {
		return nil, err
	}
	return parseDocument(name, data)
}

// LoadFile reads and loads the PDF at path
func (s *Service) LoadFile(path string) (*Document, error) {
	if err := s.validator.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Reason: "cannot read file", Err: err}
	}
	return s.Load(filepath.Base(path), data)
}

// Export writes fields into doc and returns the new PDF
func (s *Service) Export(ctx context.Context, doc *Document, fields []*layout.Field, canvas layout.Size) ([]byte, *ExportReport, error) {
	return s.exporter.Export(ctx, doc, fields, canvas)
}

// ExportFile exports into path, creating parent directories as needed
func (s *Service) ExportFile(ctx context.Context, doc *Document, fields []*layout.Field, canvas layout.Size, path string) (*ExportReport, error) {
	out, report, err := s.Export(ctx, doc, fields, canvas)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", path, err)
	}
	return report, nil
}

// Inspect lists the form fields of data
func (s *Service) Inspect(data []byte) ([]FormField, error) {
	if _, err := s.validator.ValidateBytes(data); err != nil {
		return nil, err
	}
	return InspectFields(data)
}

// MaxFileSize returns the maximum accepted input size in bytes
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}
