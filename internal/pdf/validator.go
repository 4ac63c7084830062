package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// headerWindow is how far into the file the %PDF- marker may appear
const headerWindow = 1024

// Validator checks PDF input before it reaches the document model
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidatePath checks that filePath names a readable PDF file of acceptable size
func (v *Validator) ValidatePath(filePath string) error {
	if filePath == "" {
		return &LoadError{Reason: "path cannot be empty"}
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return &LoadError{Reason: fmt.Sprintf("file does not exist: %s", filePath)}
	}
	if err != nil {
		return &LoadError{Reason: "cannot access file", Err: err}
	}

	if fileInfo.IsDir() {
		return &LoadError{Reason: fmt.Sprintf("path is a directory, not a file: %s", filePath)}
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return &LoadError{Reason: fmt.Sprintf("file is not a PDF: %s", filePath)}
	}

	return v.checkSize(fileInfo.Size())
}

// ValidateBytes checks size and header, then parses the document with
// ledongthuc/pdf. It returns the page count.
func (v *Validator) ValidateBytes(data []byte) (int, error) {
	if err := v.checkSize(int64(len(data))); err != nil {
		return 0, err
	}

	head := data[:min(len(data), headerWindow)]
	if !bytes.Contains(head, []byte("%PDF-")) {
		return 0, &LoadError{Reason: "missing %PDF header"}
	}

	return countPages(data)
}

func (v *Validator) checkSize(size int64) error {
	if size == 0 {
		return &LoadError{Reason: "file is empty"}
	}
	if size > v.maxFileSize {
		return &LoadError{Reason: fmt.Sprintf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)}
	}
	return nil
}

// countPages opens the document with ledongthuc/pdf, which panics on some
// malformed inputs
func countPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = &LoadError{Reason: "invalid PDF file", Err: fmt.Errorf("%v", r)}
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, &LoadError{Reason: "invalid PDF file", Err: err}
	}

	pages = r.NumPage()
	if pages < 1 {
		return 0, &LoadError{Reason: "document has no pages"}
	}
	return pages, nil
}
