// Package backup snapshots and restores the SQLite collections database.
// Snapshots are consistent point-in-time copies taken with VACUUM INTO,
// which is safe under WAL mode while the store is in use.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const snapshotPrefix = "recall-snapshot-"

// Config holds snapshot manager configuration.
type Config struct {
	// DBPath is the SQLite database file to snapshot.
	DBPath string

	// SnapshotDir is where snapshots are written.
	SnapshotDir string

	// Keep is how many snapshots to retain; older ones are pruned after
	// each new snapshot (default: 10).
	Keep int

	// Verify runs an integrity check on every snapshot taken.
	Verify bool
}

// Snapshot is one stored database snapshot.
type Snapshot struct {
	Path      string
	CreatedAt time.Time
	Size      int64
}

// Manager takes, lists, prunes, and restores database snapshots.
type Manager struct {
	cfg Config
}

// NewManager validates the config and creates the snapshot directory.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("backup: database path is required")
	}
	if cfg.SnapshotDir == "" {
		return nil, fmt.Errorf("backup: snapshot directory is required")
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 10
	}
	if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create snapshot directory: %w", err)
	}
	return &Manager{cfg: cfg}, nil
}

// Snapshot writes a new snapshot and prunes old ones down to Keep. Prune
// failures are logged, never fatal; the snapshot itself already succeeded.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	if _, err := os.Stat(m.cfg.DBPath); err != nil {
		return nil, fmt.Errorf("backup: database not found: %w", err)
	}

	name := snapshotPrefix + time.Now().Format("20060102-150405.000000") + ".db"
	path := filepath.Join(m.cfg.SnapshotDir, name)

	if err := vacuumInto(ctx, m.cfg.DBPath, path); err != nil {
		return nil, err
	}
	if m.cfg.Verify {
		if err := verify(ctx, path); err != nil {
			_ = os.Remove(path)
			return nil, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat snapshot: %w", err)
	}

	if err := m.prune(); err != nil {
		log.Printf("backup: prune failed: %v", err)
	}

	return &Snapshot{Path: path, CreatedAt: info.ModTime(), Size: info.Size()}, nil
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read snapshot directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Path:      filepath.Join(m.cfg.SnapshotDir, entry.Name()),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Restore replaces the database with the given snapshot. The store must be
// closed first. The current database is kept beside the target as a
// pre-restore copy and restored on failure.
func (m *Manager) Restore(ctx context.Context, snapshotPath string) error {
	if err := verify(ctx, snapshotPath); err != nil {
		return err
	}

	preRestore := m.cfg.DBPath + ".pre-restore"
	hadExisting := false
	if _, err := os.Stat(m.cfg.DBPath); err == nil {
		hadExisting = true
		if err := copyFile(m.cfg.DBPath, preRestore); err != nil {
			return fmt.Errorf("backup: failed to save pre-restore copy: %w", err)
		}
	}

	if err := copyFile(snapshotPath, m.cfg.DBPath); err != nil {
		if hadExisting {
			if rbErr := copyFile(preRestore, m.cfg.DBPath); rbErr != nil {
				return fmt.Errorf("backup: restore failed and rollback failed: %v (restore error: %w)", rbErr, err)
			}
			return fmt.Errorf("backup: restore failed, previous database kept: %w", err)
		}
		return err
	}

	if err := verify(ctx, m.cfg.DBPath); err != nil {
		return fmt.Errorf("backup: restored database failed verification: %w", err)
	}
	if hadExisting {
		_ = os.Remove(preRestore)
	}
	return nil
}

// prune deletes snapshots beyond the Keep newest.
func (m *Manager) prune() error {
	snapshots, err := m.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= m.cfg.Keep {
		return nil
	}

	var lastErr error
	for _, snap := range snapshots[m.cfg.Keep:] {
		if err := os.Remove(snap.Path); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// vacuumInto copies the database into destPath via VACUUM INTO, read-only.
func vacuumInto(ctx context.Context, sourcePath, destPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("backup: failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("backup: snapshot failed: %w", err)
	}
	return nil
}

// verify runs SQLite's integrity check against the file.
func verify(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: failed to open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check of %s: %w", path, err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check of %s failed: %s", path, result)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
