package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Store persists completion maps under string keys.
type Store interface {
	Load(key string) (map[string]bool, error)
	Save(key string, state map[string]bool) error
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Load returns the stored map, or an empty map when nothing was saved yet.
func (s *FileStore) Load(key string) (map[string]bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("progress: read %s: %w", key, err)
	}
	state := map[string]bool{}
	if errUnmarshal := json.Unmarshal(data, &state); errUnmarshal != nil {
		return nil, fmt.Errorf("progress: parse %s: %w", key, errUnmarshal)
	}
	return state, nil
}

// Save replaces the stored map atomically.
func (s *FileStore) Save(key string, state map[string]bool) error {
	if errMkdir := os.MkdirAll(s.dir, 0o700); errMkdir != nil {
		return fmt.Errorf("progress: create dir: %w", errMkdir)
	}
	data, errMarshal := json.Marshal(state)
	if errMarshal != nil {
		return fmt.Errorf("progress: encode %s: %w", key, errMarshal)
	}
	target := s.path(key)
	tmp, errTemp := os.CreateTemp(s.dir, ".progress-*")
	if errTemp != nil {
		return fmt.Errorf("progress: temp file: %w", errTemp)
	}
	if _, errWrite := tmp.Write(data); errWrite != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("progress: write %s: %w", key, errWrite)
	}
	if errClose := tmp.Close(); errClose != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("progress: close %s: %w", key, errClose)
	}
	if errRename := os.Rename(tmp.Name(), target); errRename != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("progress: replace %s: %w", key, errRename)
	}
	return nil
}
