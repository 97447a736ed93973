package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrInvalidType      = errors.New("invalid image type. Use 'products' or 'categories'")
	ErrInvalidExtension = errors.New("invalid file type. Allowed: jpg, jpeg, png, gif, webp")
	ErrTooLarge         = errors.New("file size exceeds limit")
	ErrNotImage         = errors.New("file content is not an allowed image")
	ErrInvalidFileName  = errors.New("invalid file name")
	ErrFileNotFound     = errors.New("file not found")
	ErrEmptyFile        = errors.New("no file uploaded")
)

var allowedTypes = map[string]bool{
	"products":   true,
	"categories": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// sniffLen is enough for mimetype to recognise every allowed format.
const sniffLen = 3072

// ImageStore saves uploaded images under <root>/images/<type>/ and exposes
// them as /images/<type>/<file>.
type ImageStore struct {
	fs       afero.Fs
	root     string
	maxBytes int64
	newName  func() string
}

func NewImageStore(fs afero.Fs, root string, maxBytes int64) *ImageStore {
	return &ImageStore{
		fs:       fs,
		root:     root,
		maxBytes: maxBytes,
		newName:  func() string { return uuid.NewString() },
	}
}

// Dir is the directory static files are served from.
func (s *ImageStore) Dir() string {
	return filepath.Join(s.root, "images")
}

func (s *ImageStore) typeDir(imageType string) (string, error) {
	if !allowedTypes[imageType] {
		return "", ErrInvalidType
	}
	return filepath.Join(s.root, "images", imageType), nil
}

// Save validates and stores an upload, returning its public URL.
func (s *ImageStore) Save(imageType, originalName string, size int64, r io.Reader) (string, error) {
	dir, err := s.typeDir(imageType)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if size > s.maxBytes {
		return "", fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, s.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrInvalidExtension
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]
	if !isAllowedImage(mimetype.Detect(head)) {
		return "", ErrNotImage
	}

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := s.newName() + ext
	f, err := s.fs.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	// One byte over the limit is enough to detect a lying size header.
	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		_ = s.fs.Remove(filepath.Join(dir, name))
		return "", err
	}

	return path.Join("/images", imageType, name), nil
}

// Delete removes a stored file. fileName must be a bare file name.
func (s *ImageStore) Delete(imageType, fileName string) error {
	dir, err := s.typeDir(imageType)
	if err != nil {
		return err
	}
	if !isBareName(fileName) {
		return ErrInvalidFileName
	}

	full := filepath.Join(dir, fileName)
	exists, err := afero.Exists(s.fs, full)
	if err != nil {
		return err
	}
	if !exists {
		return ErrFileNotFound
	}
	return s.fs.Remove(full)
}

// List returns the public URLs of the stored images of a type, sorted.
func (s *ImageStore) List(imageType string) ([]string, error) {
	dir, err := s.typeDir(imageType)
	if err != nil {
		return nil, err
	}

	urls := []string{}
	entries, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return urls, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		urls = append(urls, path.Join("/images", imageType, e.Name()))
	}
	sort.Strings(urls)
	return urls, nil
}

func isBareName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

func isAllowedImage(m *mimetype.MIME) bool {
	for _, t := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		if m.Is(t) {
			return true
		}
	}
	return false
}
