package logfile

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// Metadata is the subset of file information the evaluator needs.
type Metadata struct {
	Size    int64
	ModTime time.Time
}

// FileSystem answers existence and metadata queries.
type FileSystem interface {
	Exists(path string) (bool, error)
	Metadata(path string) (Metadata, error)
}

// OSFileSystem is the host filesystem.
type OSFileSystem struct{}

// Exists reports whether path exists. Errors other than "not exist"
// (permission denied on a parent directory, for example) are returned.
func (OSFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Metadata opens the file and reads its size and modification time.
func (OSFileSystem) Metadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Size: info.Size(), ModTime: info.ModTime()}, nil
}
