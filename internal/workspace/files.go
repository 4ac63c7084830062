package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileKind classifies the workspace files the designer works with
type FileKind string

const (
	KindPDF    FileKind = "pdf"
	KindLayout FileKind = "layout"
)

var kindsByExt = map[string]FileKind{
	".pdf":    KindPDF,
	".yaml":   KindLayout,
	".yml":    KindLayout,
	".json":   KindLayout,
	".fields": KindLayout,
}

// File is a PDF or layout file found in the workspace
type File struct {
	Path     string    `json:"path"` // relative to the workspace directory
	Name     string    `json:"name"`
	Kind     FileKind  `json:"kind"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Find walks the workspace for PDF and layout files whose name matches
// query. An empty kind matches both kinds; limit <= 0 means no limit.
func (w *Workspace) Find(query string, kind FileKind, limit int) ([]File, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	var files []File

	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, not fatal
			return nil //nolint:nilerr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != w.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !w.contains(path) {
			return nil
		}

		k, ok := kindsByExt[strings.ToLower(filepath.Ext(d.Name()))]
		if !ok || (kind != "" && k != kind) {
			return nil
		}
		if !matchesQuery(d.Name(), query) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		rel, err := filepath.Rel(w.dir, path)
		if err != nil {
			return nil //nolint:nilerr
		}
		files = append(files, File{
			Path:     filepath.ToSlash(rel),
			Name:     d.Name(),
			Kind:     k,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking workspace: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// matchesQuery reports whether every word of query occurs in the file name.
// query must already be lower case.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, q := range splitIntoWords(query) {
		found := false
		for _, word := range words {
			if strings.Contains(word, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
