// Package manifest records scan and resolution history to the
// filesystem as one JSON document per operation, so users can audit
// what the tool found and what it moved or removed.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// OperationType identifies the recorded operation.
type OperationType string

// Recorded operation types.
const (
	OpScan    OperationType = "scan"
	OpResolve OperationType = "resolve"
)

// GroupRecord summarizes one duplicate group in a scan entry.
type GroupRecord struct {
	Original   string   `json:"original"`
	Duplicates []string `json:"duplicates"`
	Similarity float64  `json:"similarity"`
	Savings    int64    `json:"savings_bytes"`
}

// Entry is one persisted manifest record.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`

	// Scan fields.
	FilesScanned int64         `json:"files_scanned,omitempty"`
	Groups       []GroupRecord `json:"groups,omitempty"`

	// Resolution fields.
	Action  types.Action             `json:"action,omitempty"`
	Outcome *types.ResolutionOutcome `json:"outcome,omitempty"`
}

// Manifest manages operation logging to a directory.
type Manifest struct {
	dir string
	mu  sync.Mutex
}

// New creates a Manifest rooted at dir. The directory is not created
// until EnsureDir is called.
func New(dir string) (*Manifest, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	return &Manifest{dir: dir}, nil
}

// EnsureDir creates the manifest directory if it does not exist.
func (m *Manifest) EnsureDir() error {
	return os.MkdirAll(m.dir, 0o755)
}

// LogScan persists a scan result summary and returns the created entry.
func (m *Manifest) LogScan(result *types.ScanResult) (*Entry, error) {
	groups := make([]GroupRecord, 0, len(result.Groups))
	for _, g := range result.Groups {
		rec := GroupRecord{
			Original:   g.Original().Path,
			Similarity: g.Similarity,
			Savings:    g.PotentialSavings(),
		}
		for _, d := range g.Duplicates() {
			rec.Duplicates = append(rec.Duplicates, d.Path)
		}
		groups = append(groups, rec)
	}

	return m.log(&Entry{
		Operation:    OpScan,
		FilesScanned: result.FilesScanned,
		Groups:       groups,
	})
}

// LogResolution persists a resolution outcome and returns the created
// entry.
func (m *Manifest) LogResolution(action types.Action, outcome *types.ResolutionOutcome) (*Entry, error) {
	return m.log(&Entry{
		Operation: OpResolve,
		Action:    action,
		Outcome:   outcome,
	})
}

// log stamps and persists an entry.
func (m *Manifest) log(entry *Entry) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Timestamp = time.Now().UTC()
	entry.ID = fmt.Sprintf("%s-%s-%s",
		entry.Timestamp.Format("20060102-150405"),
		entry.Operation,
		uuid.NewString()[:8])

	if err := m.writeEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to write manifest entry: %w", err)
	}
	return entry, nil
}

// writeEntry writes an entry to a JSON file in the manifest directory,
// atomically via a temp file and rename.
func (m *Manifest) writeEntry(entry *Entry) error {
	filePath := filepath.Join(m.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// List returns all manifest entries sorted by timestamp descending
// (newest first). If limit is 0 or negative, all entries are returned.
func (m *Manifest) List(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err != nil {
			continue // Skip unreadable entries
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue // Skip corrupt entries
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns a single entry by ID.
func (m *Manifest) Get(id string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(m.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("entry not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse entry: %w", err)
	}
	return &entry, nil
}

// Prune removes entries older than the retention window.
func (m *Manifest) Prune(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	entries, err := m.List(0)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.Timestamp.Before(cutoff) {
			if err := os.Remove(filepath.Join(m.dir, entry.ID+".json")); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
