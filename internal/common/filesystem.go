// Package common provides the small shared interfaces used across the
// deptrack packages.
//
//nolint:revive // var-naming: package name "common" is intentional for shared internal utilities
package common

import (
	"io"
	"os"
)

// File is an open byte-stream source for binary parsing. Parsers need
// random access; the loader closes the stream on every exit path.
type File interface {
	io.ReaderAt
	io.Closer
}

// FileSystem defines the file system operations used by the config loader,
// the session store and the dependency loader. The interface allows tests
// to substitute an in-memory implementation.
type FileSystem interface {
	// Open opens a file for random-access reading
	Open(path string) (File, error)

	// ReadFile reads the entire file content
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary
	WriteFile(path string, data []byte, perm os.FileMode) error

	// FileExists checks if a file or directory exists
	FileExists(path string) (bool, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(path string, perm os.FileMode) error
}

// DefaultFileSystem implements FileSystem using standard os package functions
type DefaultFileSystem struct{}

// NewDefaultFileSystem creates a new DefaultFileSystem
func NewDefaultFileSystem() *DefaultFileSystem {
	return &DefaultFileSystem{}
}

// Open opens a file for random-access reading
func (fs *DefaultFileSystem) Open(path string) (File, error) {
	return os.Open(path)
}

// ReadFile reads the entire file content
func (fs *DefaultFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a file, creating it if necessary
func (fs *DefaultFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// FileExists checks if a file or directory exists
func (fs *DefaultFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MkdirAll creates a directory and all necessary parents
func (fs *DefaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
