// Package media stores uploaded recipe images on the local filesystem.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/media/"

const recipesDir = "recipes"

// ErrInvalidImage is returned for payloads that are not base64 images of a
// supported type.
var ErrInvalidImage = errors.New("invalid image payload")

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes images below Root.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

// SaveBase64 decodes a data URI ("data:image/png;base64,...") or bare
// base64 image and returns its public path.
func (s *Store) SaveBase64(data string) (string, error) {
	payload := strings.TrimSpace(data)
	if header, body, ok := strings.Cut(payload, ","); ok && strings.HasPrefix(header, "data:") {
		if !strings.HasSuffix(header, ";base64") {
			return "", fmt.Errorf("%w: data URI is not base64 encoded", ErrInvalidImage)
		}
		payload = body
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	detected := mimetype.Detect(raw)
	ext, ok := allowedTypes[detected.String()]
	if !ok {
		return "", fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, detected.String())
	}

	dir := filepath.Join(s.Root, recipesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return PublicPrefix + recipesDir + "/" + name, nil
}

// Remove deletes a file previously returned by SaveBase64. Paths outside the
// store and already missing files are ignored.
func (s *Store) Remove(publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return nil
	}
	rel := filepath.FromSlash(strings.TrimPrefix(publicPath, PublicPrefix))
	if strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, rel))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
