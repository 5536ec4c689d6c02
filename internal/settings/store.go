package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// SnapshotKey names the stored snapshot of the last resolved settings.
	SnapshotKey = "last-randomtest-settings"

	// StateDir is the workspace-relative directory holding stored state.
	StateDir = ".cstest"

	snapshotVersion = 1
)

// Store persists the settings of the last run.
type Store interface {
	// Load returns the stored settings, or false if nothing is stored.
	Load() (Settings, bool, error)

	// Save replaces the stored settings.
	Save(Settings) error
}

// snapshot is the on-disk envelope.
type snapshot struct {
	Version  int      `msgpack:"v"`
	Settings Settings `msgpack:"settings"`
}

// FileStore keeps the snapshot as a msgpack blob inside the workspace.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store scoped to workspaceRoot.
func NewFileStore(workspaceRoot string) *FileStore {
	return &FileStore{path: filepath.Join(workspaceRoot, StateDir, SnapshotKey)}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load() (Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, false, nil
		}
		return Settings{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return Settings{}, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if snap.Version != snapshotVersion {
		return Settings{}, false, fmt.Errorf("snapshot %s: unsupported version %d", s.path, snap.Version)
	}
	return snap.Settings, true, nil
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := msgpack.Marshal(snapshot{Version: snapshotVersion, Settings: settings})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// MemoryStore keeps the snapshot in memory. Used when no workspace is open.
type MemoryStore struct {
	mu       sync.Mutex
	settings Settings
	ok       bool
}

// Load implements Store.
func (m *MemoryStore) Load() (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, m.ok, nil
}

// Save implements Store.
func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	m.ok = true
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
