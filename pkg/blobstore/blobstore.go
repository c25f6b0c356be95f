// Package blobstore implements a file storage adapter over two Raw Dicts —
// one holding file content, one holding JSON metadata — the way the
// original pcontainers project's depot adapter stored uploaded files in
// LMDB. Grounded on the teacher's LocalDriver file-lifecycle style
// (create/get/delete symmetry, os-package error wrapping), adapted from a
// filesystem directory to a pair of Raw Dicts.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/kv"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
	"github.com/cuemby/pcontainers/pkg/plog"
)

// metadata is the JSON document stored alongside each file's bytes.
type metadata struct {
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	ContentLength int       `json:"content_length"`
	LastModified  time.Time `json:"last_modified"`
}

// StoredFile is a snapshot of one blob's content and metadata, returned by
// Get. Content is read fully into memory, matching the original adapter's
// read-into-buffer-then-serve shape.
type StoredFile struct {
	ID            string
	Filename      string
	ContentType   string
	ContentLength int
	LastModified  time.Time
	Content       []byte
}

// Options returns the option set the original adapter used for its LMDB
// environment (write_map, map_async). Neither flag is forwarded to bbolt
// (see env.Options), so the resulting environment behaves like one opened
// with env.DefaultOptions.
func Options() env.Options {
	return env.Options{WriteMap: true, MapAsync: true}
}

// FileStore stores files and their metadata in an Environment, under two
// named databases: "files" (id -> content) and "metadata" (id -> JSON).
type FileStore struct {
	files *kv.RawDict
	meta  *kv.RawDict
}

// NewFileStore opens (or creates) the files and metadata databases inside
// e.
func NewFileStore(e *env.Environment) (*FileStore, error) {
	files, err := kv.NewRawDict(e, "files")
	if err != nil {
		return nil, fmt.Errorf("pcontainers: open files database: %w", err)
	}
	meta, err := kv.NewRawDict(e, "metadata")
	if err != nil {
		return nil, fmt.Errorf("pcontainers: open metadata database: %w", err)
	}
	return &FileStore{files: files, meta: meta}, nil
}

// Create stores content under a newly generated ID and returns it.
func (fs *FileStore) Create(ctx context.Context, content io.Reader, filename, contentType string) (string, error) {
	id := uuid.New().String()
	if err := fs.save(ctx, id, content, filename, contentType); err != nil {
		return "", err
	}
	plog.WithComponent("blobstore").Debug().Str("id", id).Str("filename", filename).Msg("file created")
	return id, nil
}

// Replace overwrites the content and metadata of an existing file. Fails
// with pcerrors.ErrNotFound if id does not exist.
func (fs *FileStore) Replace(ctx context.Context, id string, content io.Reader, filename, contentType string) error {
	exists, err := fs.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return pcerrors.ErrNotFound
	}
	return fs.save(ctx, id, content, filename, contentType)
}

func (fs *FileStore) save(ctx context.Context, id string, content io.Reader, filename, contentType string) error {
	buf, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("pcontainers: read file content: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if filename == "" {
		filename = "unnamed"
	}
	m := metadata{
		Filename:      filename,
		ContentType:   contentType,
		ContentLength: len(buf),
		LastModified:  time.Now().UTC(),
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("pcontainers: encode file metadata: %w", err)
	}
	if err := fs.files.Put(ctx, []byte(id), buf); err != nil {
		return fmt.Errorf("pcontainers: store file content: %w", err)
	}
	if err := fs.meta.Put(ctx, []byte(id), encoded); err != nil {
		return fmt.Errorf("pcontainers: store file metadata: %w", err)
	}
	return nil
}

// Get returns the stored file and its metadata. Fails with
// pcerrors.ErrNotFound if id does not exist.
func (fs *FileStore) Get(ctx context.Context, id string) (*StoredFile, error) {
	encoded, err := fs.meta.Get(ctx, []byte(id))
	if err != nil {
		return nil, err
	}
	var m metadata
	if err := json.Unmarshal(encoded, &m); err != nil {
		return nil, fmt.Errorf("pcontainers: decode file metadata for %s: %w", id, err)
	}
	content, err := fs.files.Get(ctx, []byte(id))
	if err != nil {
		return nil, err
	}
	return &StoredFile{
		ID:            id,
		Filename:      m.Filename,
		ContentType:   m.ContentType,
		ContentLength: m.ContentLength,
		LastModified:  m.LastModified,
		Content:       content,
	}, nil
}

// Open returns the file's content as an io.Reader without materializing a
// StoredFile, for callers that only need a stream.
func (fs *FileStore) Open(ctx context.Context, id string) (io.Reader, error) {
	content, err := fs.files.Get(ctx, []byte(id))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(content), nil
}

// Delete removes a file and its metadata. Unlike RawDict.Remove, deleting
// an absent id is a no-op rather than an error, matching the original
// adapter's delete-is-idempotent behavior.
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	if err := fs.meta.Remove(ctx, []byte(id)); err != nil && err != pcerrors.ErrNotFound {
		return err
	}
	if err := fs.files.Remove(ctx, []byte(id)); err != nil && err != pcerrors.ErrNotFound {
		return err
	}
	return nil
}

// Exists reports whether id has metadata on file.
func (fs *FileStore) Exists(ctx context.Context, id string) (bool, error) {
	return fs.meta.Contains(ctx, []byte(id))
}

// List returns every stored file's ID.
func (fs *FileStore) List(ctx context.Context) ([]string, error) {
	keys, err := fs.meta.NoIterKeys(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = string(k)
	}
	return ids, nil
}
