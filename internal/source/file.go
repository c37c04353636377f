package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/trackview/internal/timeline"
)

// File reads a session document exported from the backend.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

func (f *File) Load(ctx context.Context) (*timeline.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s timeline.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", timeline.ErrMalformedSession, f.path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return &s, nil
}

// Key is "file:<path>" so file sessions never collide with backend ids.
func (f *File) Key() string { return "file:" + f.path }

func (f *File) Describe() string { return filepath.Base(f.path) }

func (f *File) Path() string { return f.path }
