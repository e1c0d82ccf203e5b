package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aprScope/internal/model"
	"aprScope/internal/storage/postgres"
)

// StateStore persists the newest archived point timestamp per pair and window.
type StateStore interface {
	Load(ctx context.Context, key string) (time.Time, bool, error)
	Save(ctx context.Context, key string, ts time.Time) error
}

// StateKey names the progress entry of a pair and window.
func StateKey(pair string, window model.Window) string {
	return "apr:" + pair + ":" + window.String()
}

// FileStateStore stores state in a local JSON file.
type FileStateStore struct {
	Path string

	mu sync.Mutex
}

type stateRecord struct {
	LastArchived string `json:"last_archived_ts"`
	UpdatedAt    string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context, key string) (time.Time, bool, error) {
	if s == nil || s.Path == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return time.Time{}, false, err
	}
	rec, ok := records[key]
	if !ok {
		return time.Time{}, false, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, rec.LastArchived)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse state %s: %w", key, err)
	}
	return ts, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, key string, ts time.Time) error {
	if s == nil || s.Path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records[key] = stateRecord{
		LastArchived: ts.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *FileStateStore) read() (map[string]stateRecord, error) {
	records := make(map[string]stateRecord)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return records, nil
}

// DBStateStore stores state in the archive_state table.
type DBStateStore struct {
	Store *postgres.Store
}

func (s *DBStateStore) Load(ctx context.Context, key string) (time.Time, bool, error) {
	if s == nil || s.Store == nil {
		return time.Time{}, false, nil
	}
	return s.Store.LoadState(ctx, key)
}

func (s *DBStateStore) Save(ctx context.Context, key string, ts time.Time) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, key, ts)
}
