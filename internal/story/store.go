// Package story keeps the on-disk bookkeeping for generated stories: a
// one-file-per-concept JSON mapping with the version history of every
// generation attempt, plus the writer that persists accepted artifacts
// into the watched source tree.
package story

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storyforge/internal/logging"
)

// Version records one generation attempt for a concept.
type Version struct {
	ID          string    `json:"id"` // generation request correlation id
	CreatedAt   time.Time `json:"created_at"`
	Valid       bool      `json:"valid"`
	Verified    bool      `json:"verified"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
}

// Mapping ties a concept to its story artifact and attempt history.
// The mapping is identity/versioning state only; the validator and the
// catalog never read it.
type Mapping struct {
	Concept   string    `json:"concept"`
	Title     string    `json:"title"`
	FilePath  string    `json:"file_path,omitempty"` // artifact location in the source tree
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Versions  []Version `json:"versions"`
}

// LatestVersion returns the most recent attempt, if any.
func (m *Mapping) LatestVersion() (Version, bool) {
	if len(m.Versions) == 0 {
		return Version{}, false
	}
	return m.Versions[len(m.Versions)-1], true
}

// Store reads and writes concept mappings under a single directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("mapping directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mapping dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ConceptKey normalizes a concept phrase into a stable file key:
// lowercase with non-alphanumeric runs collapsed to single dashes.
func ConceptKey(concept string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(concept) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) path(concept string) string {
	return filepath.Join(s.dir, ConceptKey(concept)+".json")
}

// Load reads the mapping for a concept. A missing mapping returns
// (nil, nil): first-time concepts are normal, not errors.
func (s *Store) Load(concept string) (*Mapping, error) {
	data, err := os.ReadFile(s.path(concept))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", s.path(concept), err)
	}
	return &m, nil
}

// Save writes a mapping atomically (temp file plus rename).
func (s *Store) Save(m *Mapping) error {
	if m.Concept == "" {
		return fmt.Errorf("mapping has no concept")
	}
	m.UpdatedAt = time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	target := s.path(m.Concept)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace mapping: %w", err)
	}
	logging.Store("saved mapping %s (%d version(s))", filepath.Base(target), len(m.Versions))
	return nil
}

// Record upserts the mapping for a concept and appends one attempt to
// its history.
func (s *Store) Record(concept, title, filePath string, v Version) (*Mapping, error) {
	m, err := s.Load(concept)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = &Mapping{Concept: ConceptKey(concept), Title: title}
	}
	if title != "" {
		m.Title = title
	}
	if filePath != "" {
		m.FilePath = filePath
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	m.Versions = append(m.Versions, v)
	if err := s.Save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns every mapping in the store, ordered by concept.
func (s *Store) List() ([]Mapping, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read mapping dir: %w", err)
	}

	var out []Mapping
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logging.StoreError("read %s: %v", entry.Name(), err)
			continue
		}
		var m Mapping
		if err := json.Unmarshal(data, &m); err != nil {
			logging.StoreError("parse %s: %v", entry.Name(), err)
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Concept < out[j].Concept })
	return out, nil
}
