package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultImageExt is used when an upload carries no extension.
const DefaultImageExt = ".jpg"

// ErrNotImage is returned when uploaded content is not an image.
var ErrNotImage = errors.New("content is not an image")

// ImageStore persists image blobs under keys namespaced by ticket.
type ImageStore interface {
	Save(ctx context.Context, key string, content []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// LocalImageStore writes blobs below a media root served as static files.
type LocalImageStore struct {
	root    string
	baseURL string
}

// NewLocalImageStore builds a store rooted at root whose files are published under baseURL.
func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// TicketImageKey derives the storage key of an upload: a fresh unique name
// keeping the original extension, below the ticket's directory.
func TicketImageKey(ticketID int64, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		ext = DefaultImageExt
	}
	return path.Join("tickets", fmt.Sprint(ticketID), uuid.NewString()+ext)
}

func (s *LocalImageStore) Save(ctx context.Context, key string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(mimetype.Detect(content).String(), "image/") {
		return ErrNotImage
	}

	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(dst, content, 0o640); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func (s *LocalImageStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dst)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *LocalImageStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public address of key.
func (s *LocalImageStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// resolve maps key below root and rejects keys escaping it.
func (s *LocalImageStore) resolve(key string) (string, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(absRoot, filepath.FromSlash(key))
	if !strings.HasPrefix(dst, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return dst, nil
}
