// Package artifact stores synthesized audio under content-derived keys.
//
// Artifacts are write-once: the key is a hash of the spoken text, so a
// second write for the same key is skipped and the existing file is served.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Ext is the file extension of every stored artifact.
const Ext = ".wav"

// Store keeps audio artifacts in a directory of an afero filesystem.
type Store struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

// NewStore returns a store rooted at dir on fsys. The directory is created
// if it does not exist.
func NewStore(fsys afero.Fs, dir, urlPrefix string) (*Store, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir %s: %w", dir, err)
	}
	return &Store{
		fs:        fsys,
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// NewOsStore returns a store on the local disk.
func NewOsStore(dir, urlPrefix string) (*Store, error) {
	return NewStore(afero.NewOsFs(), dir, urlPrefix)
}

// Key derives the artifact key for text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string {
	return path.Join(s.dir, key+Ext)
}

// Exists reports whether an artifact for key has been written.
func (s *Store) Exists(key string) bool {
	ok, err := afero.Exists(s.fs, s.path(key))
	return err == nil && ok
}

// Write stores data under key unless an artifact already exists.
// The file is written to a temporary name and renamed into place so readers
// never observe a partial file.
func (s *Store) Write(key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	if s.Exists(key) {
		return nil
	}

	tmp, err := afero.TempFile(s.fs, s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("publishing artifact: %w", err)
	}
	return nil
}

// Read returns the artifact stored under key.
func (s *Store) Read(key string) ([]byte, error) {
	if !validKey(key) {
		return nil, os.ErrNotExist
	}
	return afero.ReadFile(s.fs, s.path(key))
}

// URLFor returns the public URL of the artifact for key.
func (s *Store) URLFor(key string) string {
	return s.urlPrefix + "/" + key + Ext
}

// URLPrefix is the path prefix artifacts are served under.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// FS exposes the artifact directory as a read-only filesystem for serving.
func (s *Store) FS() afero.Fs {
	return afero.NewReadOnlyFs(afero.NewBasePathFs(s.fs, s.dir))
}

// validKey accepts lowercase hex keys only, which rules out path traversal.
func validKey(key string) bool {
	if len(key) == 0 || len(key) > 128 {
		return false
	}
	for _, c := range key {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Check verifies the artifact directory is still present.
func (s *Store) Check(context.Context) error {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifact dir %s is not a directory", s.dir)
	}
	return nil
}
