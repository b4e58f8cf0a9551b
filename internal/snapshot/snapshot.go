// Package snapshot persists collection runs as flat files: one JSON
// snapshot and one HTML report per run, filenames keyed by the UTC
// collection timestamp. There is deliberately no database; the snapshot
// file is the system of record and the audit trail (failed investors
// keep their error strings).
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/crowdfolio/crowdfolio/internal/analysis"
	"github.com/crowdfolio/crowdfolio/internal/collector"
	"github.com/crowdfolio/crowdfolio/internal/etoro"
)

// timestampLayout encodes the run time into filenames.
const timestampLayout = "20060102T150405Z"

// Snapshot is one immutable collection run: the raw collected data plus
// the derived band analyses. Read-only once written.
type Snapshot struct {
	CollectedAt time.Time                      `json:"collectedAt"`
	Period      etoro.Period                   `json:"period"`
	Investors   []collector.CollectedInvestor  `json:"investors"`
	Instruments map[int64]etoro.InstrumentMeta `json:"instruments"`
	Rates       map[int64]etoro.InstrumentRate `json:"rates,omitempty"`
	Users       map[string]etoro.UserDetail    `json:"users,omitempty"`
	Analyses    []analysis.BandAnalysis        `json:"analyses"`
	ErrorCount  int                            `json:"errorCount"`
}

// Store reads and writes snapshots under one directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the snapshot JSON and returns its path.
func (s *Store) Save(snap *Snapshot) (string, error) {
	name := "snapshot-" + snap.CollectedAt.UTC().Format(timestampLayout) + ".json"
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return path, nil
}

// SaveReport writes the rendered HTML report alongside the snapshot.
func (s *Store) SaveReport(collectedAt time.Time, html string) (string, error) {
	name := "report-" + collectedAt.UTC().Format(timestampLayout) + ".html"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// List returns snapshot filenames, newest first. The timestamped naming
// makes lexicographic order chronological.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "snapshot-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Load reads one snapshot by filename.
func (s *Store) Load(name string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return &snap, nil
}

// LoadLatest returns the most recent snapshot, or an error when none
// have been persisted yet.
func (s *Store) LoadLatest() (*Snapshot, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no snapshots in %s", s.dir)
	}
	return s.Load(names[0])
}
