package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/storage"
	"go.uber.org/multierr"
)

const (
	dirPerm    = 0o755
	tempSuffix = ".tmp-*"
)

// Store keeps generated documents in one flat directory.
type Store struct {
	dir  string
	logg *logger.Logger
}

var _ storage.Store = (*Store)(nil)

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{dir: abs, logg: logg}, nil
}

// Dir returns the absolute directory documents are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save streams the document into a temp file and renames it into place once
// fully flushed, so readers never observe a partial document.
func (s *Store) Save(ctx context.Context, name, contentType string, write func(io.Writer) error) (*storage.Document, error) {
	if err := storage.CheckSaveName(name); err != nil {
		return nil, err
	}
	if write == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "document writer required")
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "creating output directory")
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+tempSuffix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "creating temp document")
	}
	tmpPath := tmp.Name()

	if err := flush(tmp, write); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logg.Warn(s.logg.WithField(ctx, "temp_path", tmpPath), "removing temp document failed")
		}
		return nil, err
	}

	finalPath := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "moving document into place")
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "stat saved document")
	}
	doc := s.document(name, info)
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"file_name":  doc.FileName,
		"size_bytes": doc.SizeBytes,
	}), "document saved")
	return &doc, nil
}

func flush(f *os.File, write func(io.Writer) error) (err error) {
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeIO, closeErr, "closing document"))
		}
	}()
	if writeErr := write(f); writeErr != nil {
		if pkgerrors.As(writeErr) != nil {
			return writeErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeIO, writeErr, "writing document")
	}
	if syncErr := f.Sync(); syncErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, syncErr, "syncing document")
	}
	return nil
}

// List returns every persisted document, newest first. A directory that was
// never written to yields an empty list.
func (s *Store) List(ctx context.Context) ([]storage.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []storage.Document{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "listing documents")
	}

	docs := make([]storage.Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !storage.IsLeafName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "reading document info")
		}
		if !info.Mode().IsRegular() {
			continue
		}
		docs = append(docs, s.document(entry.Name(), info))
	}
	storage.SortNewestFirst(docs)
	return docs, nil
}

// Open streams a document by exact leaf name.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, *storage.Document, error) {
	if err := storage.CheckOpenName(name); err != nil {
		return nil, nil, err
	}
	fullPath := filepath.Join(s.dir, name)
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "opening document")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "stat document")
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	doc := s.document(name, info)
	return f, &doc, nil
}

// Ping ensures the output directory exists and is a directory.
func (s *Store) Ping(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("output directory unavailable: %w", err)
	}
	return nil
}

func (s *Store) document(name string, info fs.FileInfo) storage.Document {
	return storage.Document{
		FileName:  name,
		FilePath:  filepath.Join(s.dir, name),
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime().UTC(),
	}
}
