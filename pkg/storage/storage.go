package storage

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
)

const ContentTypePDF = "application/pdf"

// Document is the handle returned for a persisted card document.
type Document struct {
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists generated documents and serves them back by leaf name.
type Store interface {
	Save(ctx context.Context, name, contentType string, write func(io.Writer) error) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *Document, error)
	Ping(ctx context.Context) error
}

// IsLeafName reports whether name is a bare file name with no path semantics.
func IsLeafName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return false
	}
	return path.Base(name) == name
}

// CheckOpenName rejects anything that is not a leaf name as not found.
func CheckOpenName(name string) error {
	if !IsLeafName(name) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	return nil
}

// CheckSaveName rejects names that could escape the managed location.
func CheckSaveName(name string) error {
	if !IsLeafName(name) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid document name").
			WithDetails(map[string]any{"file_name": name})
	}
	return nil
}

// SortNewestFirst orders documents by creation time, most recent first.
func SortNewestFirst(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].FileName < docs[j].FileName
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
