package rendercache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"pandora/internal/config"
	"pandora/internal/fileutil"
	"pandora/internal/logging"
)

// Manager handles cached render objects and their SQLite index.
type Manager struct {
	root     string
	maxBytes int64
	db       *sql.DB
	lock     *flock.Flock
	logger   *slog.Logger
}

// Stats describes current cache usage.
type Stats struct {
	Entries    int   `json:"entries"`
	TotalBytes int64 `json:"total_bytes"`
	MaxBytes   int64 `json:"max_bytes"`
}

// Open builds a cache manager when caching is enabled; it returns (nil, nil)
// when caching is disabled or unconfigured. A nil manager is safe to use
// and behaves as a cache that never hits.
func Open(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil || !cfg.RenderCache.Enabled {
		return nil, nil
	}
	root := strings.TrimSpace(cfg.RenderCache.Dir)
	if root == "" || cfg.RenderCache.MaxMiB <= 0 {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("rendercache: create object directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("rendercache: open index: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("rendercache: apply pragma %q: %w", pragma, execErr)
		}
	}
	if err := initSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Manager{
		root:     root,
		maxBytes: int64(cfg.RenderCache.MaxMiB) * 1024 * 1024,
		db:       db,
		lock:     flock.New(filepath.Join(root, "cache.lock")),
		logger:   logging.NewComponentLogger(logger, "rendercache"),
	}, nil
}

// Close closes the index database.
func (m *Manager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Lookup copies the cached object for key to destPath when present.
// Returns true on a hit. A hit refreshes the entry's LRU position.
func (m *Manager) Lookup(ctx context.Context, key, destPath string) (bool, error) {
	if m == nil {
		return false, nil
	}
	ctx = ensureContext(ctx)
	if err := m.lock.Lock(); err != nil {
		return false, fmt.Errorf("rendercache: acquire lock: %w", err)
	}
	defer func() { _ = m.lock.Unlock() }()

	var kind string
	err := m.db.QueryRowContext(ctx, "SELECT kind FROM objects WHERE key = ?", key).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rendercache: query object: %w", err)
	}

	src := m.objectPath(key, kind)
	if _, err := os.Stat(src); err != nil {
		// Index row without a backing object; drop it and miss.
		_, _ = m.db.ExecContext(ctx, "DELETE FROM objects WHERE key = ?", key)
		return false, nil
	}
	if err := fileutil.CopyFile(src, destPath); err != nil {
		return false, fmt.Errorf("rendercache: copy object: %w", err)
	}
	_, _ = m.db.ExecContext(ctx, "UPDATE objects SET last_used_at = ? WHERE key = ?", timestamp(), key)
	return true, nil
}

// Store copies a freshly rendered asset into the cache under key and prunes
// least-recently-used entries over the size limit. kind must be KindText or
// KindAnimation.
func (m *Manager) Store(ctx context.Context, key, kind, srcPath string) error {
	if m == nil {
		return nil
	}
	ctx = ensureContext(ctx)
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("rendercache: inspect source: %w", err)
	}

	if err := m.lock.Lock(); err != nil {
		return fmt.Errorf("rendercache: acquire lock: %w", err)
	}
	defer func() { _ = m.lock.Unlock() }()

	if err := fileutil.CopyFileVerified(srcPath, m.objectPath(key, kind)); err != nil {
		return fmt.Errorf("rendercache: store object: %w", err)
	}
	now := timestamp()
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO objects (key, kind, size_bytes, created_at, last_used_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, size_bytes = excluded.size_bytes, last_used_at = excluded.last_used_at`,
		key, kind, info.Size(), now, now)
	if err != nil {
		return fmt.Errorf("rendercache: index object: %w", err)
	}
	return m.prune(ctx, key)
}

// Stats returns current cache usage.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	ctx = ensureContext(ctx)
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM objects").Scan(&s.Entries, &s.TotalBytes)
	if err != nil {
		return s, fmt.Errorf("rendercache: stats: %w", err)
	}
	s.MaxBytes = m.maxBytes
	return s, nil
}

// prune removes least-recently-used objects until the cache fits the size
// limit. keepKey, the entry just stored, is never removed; when it alone
// exceeds the limit the cache stays over until the next store.
func (m *Manager) prune(ctx context.Context, keepKey string) error {
	var total int64
	if err := m.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(size_bytes), 0) FROM objects").Scan(&total); err != nil {
		return fmt.Errorf("rendercache: size cache: %w", err)
	}

	for total > m.maxBytes {
		var (
			key  string
			kind string
			size int64
		)
		err := m.db.QueryRowContext(ctx,
			"SELECT key, kind, size_bytes FROM objects WHERE key != ? ORDER BY last_used_at ASC LIMIT 1",
			keepKey).Scan(&key, &kind, &size)
		if errors.Is(err, sql.ErrNoRows) {
			m.logger.WarnContext(ctx, "cache over limit with only the active entry",
				logging.Int64("total_bytes", total),
				logging.Int64("max_bytes", m.maxBytes))
			return nil
		}
		if err != nil {
			return fmt.Errorf("rendercache: select prune candidate: %w", err)
		}
		if err := os.Remove(m.objectPath(key, kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rendercache: remove object: %w", err)
		}
		if _, err := m.db.ExecContext(ctx, "DELETE FROM objects WHERE key = ?", key); err != nil {
			return fmt.Errorf("rendercache: delete index row: %w", err)
		}
		m.logger.InfoContext(ctx, "pruned cache entry",
			logging.String("key", key),
			logging.Int64("entry_size_bytes", size))
		total -= size
	}
	return nil
}

// objectPath shards objects by key prefix so the directory stays listable.
func (m *Manager) objectPath(key, kind string) string {
	ext := ".bin"
	switch kind {
	case KindText:
		ext = ".svg"
	case KindAnimation:
		ext = ".mp4"
	}
	prefix := key
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(m.root, "objects", prefix, key+ext)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
