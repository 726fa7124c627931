package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redlarch/deptrack/internal/common"
)

const (
	// CurrentSchemaVersion is the session document format version.
	// Increment on breaking changes to the persisted layout.
	CurrentSchemaVersion = 1

	// filePermission is the permission mode for session documents.
	filePermission = 0o600

	// dirPermission is the permission mode for the session directory.
	dirPermission = 0o750
)

// Error definitions for the session store
var (
	// ErrSessionNotFound indicates no session document exists at the path.
	ErrSessionNotFound = errors.New("session document not found")

	// ErrSchemaVersionMismatch indicates a document written by an
	// incompatible version of the tool.
	ErrSchemaVersionMismatch = errors.New("session schema version mismatch")
)

// document is the persisted form of a Session.
type document struct {
	SchemaVersion int             `json:"schema_version"`
	PrimaryPath   string          `json:"primary_path"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Segments      []Segment       `json:"segments,omitempty"`
	Functions     []Function      `json:"functions,omitempty"`
	Imports       []ImportModule  `json:"imports,omitempty"`
	Comments      []commentRecord `json:"comments,omitempty"`
}

type commentRecord struct {
	Address    uint64 `json:"address"`
	Text       string `json:"text"`
	Repeatable bool   `json:"repeatable,omitempty"`
}

// Store persists sessions as JSON documents.
type Store struct {
	fs common.FileSystem
}

// NewStore creates a Store backed by the real file system.
func NewStore() *Store {
	return NewStoreWithFS(common.NewDefaultFileSystem())
}

// NewStoreWithFS creates a Store with a custom FileSystem.
func NewStoreWithFS(fs common.FileSystem) *Store {
	return &Store{fs: fs}
}

// Save writes the session document to path, creating the parent directory
// if needed.
func (st *Store) Save(path string, s *Session) error {
	doc := document{
		SchemaVersion: CurrentSchemaVersion,
		PrimaryPath:   s.primaryPath,
		UpdatedAt:     time.Now().UTC(),
		Segments:      s.segments,
		Functions:     s.functions,
		Imports:       s.imports,
	}
	for addr, c := range s.comments {
		doc.Comments = append(doc.Comments, commentRecord{
			Address:    addr,
			Text:       c.Text,
			Repeatable: c.Repeatable,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session document: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := st.fs.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	if err := st.fs.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("writing session document: %w", err)
	}
	return nil
}

// Load reads the session document at path. It returns ErrSessionNotFound
// when the document does not exist and ErrSchemaVersionMismatch when the
// document was written by an incompatible version.
func (st *Store) Load(path string) (*Session, error) {
	data, err := st.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, path)
		}
		return nil, fmt.Errorf("reading session document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding session document: %w", err)
	}
	if doc.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrSchemaVersionMismatch, doc.SchemaVersion, CurrentSchemaVersion)
	}

	s := New(doc.PrimaryPath)
	s.segments = doc.Segments
	s.functions = doc.Functions
	s.imports = doc.Imports
	for _, c := range doc.Comments {
		s.comments[c.Address] = comment{Text: c.Text, Repeatable: c.Repeatable}
	}
	for _, f := range doc.Functions {
		s.funcNames[f.Name] = struct{}{}
	}
	return s, nil
}
