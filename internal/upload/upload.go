// Package upload validates and stores contact images on the local
// filesystem. Stored files become reachable under PublicPrefix.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"contactbook/internal/apperr"
)

// PublicPrefix is the URL prefix under which stored images are served.
const PublicPrefix = "/uploads/images/"

// allowedMediaTypes are the declared media types accepted for an upload.
var allowedMediaTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// allowedExtensions are the filename extensions accepted for an upload.
var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ValidateImage checks the declared media type and the filename extension
// against the allow-lists. Both checks run independently; the declared values
// are trusted, no content sniffing happens.
func ValidateImage(mediaType, filename string) error {
	if !contains(allowedMediaTypes, mediaType) {
		return apperr.New(apperr.Upload,
			fmt.Sprintf("media type not allowed, accepted types: %s", strings.Join(allowedMediaTypes, ", ")))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(allowedExtensions, ext) {
		return apperr.New(apperr.Upload,
			fmt.Sprintf("file extension not allowed, accepted extensions: %s", strings.Join(allowedExtensions, ", ")))
	}
	return nil
}

// contains returns true if a string is present in a slice.
func contains(slice []string, str string) bool {
	for _, v := range slice {
		if v == str {
			return true
		}
	}
	return false
}

// Result describes a successfully stored upload.
type Result struct {
	// Path is the externally addressable path, e.g. /uploads/images/<name>.
	Path string `json:"filePath"`
	// FileName is the generated name of the file on disk.
	FileName string `json:"fileName"`
}

// Store persists validated uploads under a single managed directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created lazily on
// the first Save, or eagerly via EnsureDirectory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the managed directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDirectory idempotently creates the managed directory and returns its
// location.
func (s *Store) EnsureDirectory() (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("upload: mkdir: %w", err)
	}
	return s.dir, nil
}

// GenerateUniqueName produces "{unix-millis}_{token}{ext}" with the
// lowercased extension of the original name. The token disambiguates files
// saved within the same millisecond; it is not a security boundary.
func (s *Store) GenerateUniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), token, ext)
}

// Save validates the upload and streams it into the managed directory under
// a generated unique name. Nothing is written to disk when validation fails.
// The bytes go to a temporary file first and are renamed into place, so a
// failure mid-stream never leaves a half-written file at its final name.
func (s *Store) Save(r io.Reader, mediaType, filename string) (Result, error) {
	if err := ValidateImage(mediaType, filename); err != nil {
		return Result{}, err
	}
	if _, err := s.EnsureDirectory(); err != nil {
		return Result{}, apperr.Wrap(apperr.Upload, "could not prepare the upload directory", err)
	}
	name := s.GenerateUniqueName(filename)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Upload, "could not store the uploaded file", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Result{}, apperr.Wrap(apperr.Upload, "could not store the uploaded file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Result{}, apperr.Wrap(apperr.Upload, "could not store the uploaded file", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return Result{}, apperr.Wrap(apperr.Upload, "could not store the uploaded file", err)
	}
	return Result{Path: PublicPrefix + name, FileName: name}, nil
}

// Delete removes a previously stored file by its public path. Paths outside
// PublicPrefix are rejected without touching the filesystem. Deleting a
// missing file returns false; deletion is idempotent and never errors out.
func (s *Store) Delete(storedPath string) bool {
	if !strings.HasPrefix(storedPath, PublicPrefix) {
		return false
	}
	name := strings.TrimPrefix(storedPath, PublicPrefix)
	if name == "" || name != filepath.Base(name) {
		return false
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return false
	}
	return true
}
