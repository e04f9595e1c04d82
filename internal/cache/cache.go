// Package cache persists compression outcomes across runs. A small LRU
// keeps the current run's hot entries in memory; a SQLite database
// under the user cache directory carries them between runs. Entries are
// keyed by grammar and source hash, so any edit to a file naturally
// misses and recompresses.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/zkoranges/flat/internal/compress"
	"github.com/zkoranges/flat/internal/grammar"
)

const (
	kindCompressed = "compressed"
	kindFallback   = "fallback"

	memoryEntries = 1024

	timeFormat = "2006-01-02T15:04:05Z"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS compressions (
	key        TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	body       TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Store is a two-tier compression cache. It satisfies the compression
// engine's cache interface.
type Store struct {
	db   *sql.DB
	lru  *lru.Cache[string, compress.Outcome]
	path string
}

// DefaultPath is where the cache database lives unless overridden.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "flat", "cache.db"), nil
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	l, err := lru.New[string, compress.Outcome](memoryEntries)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, lru: l, path: path}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get looks an outcome up by grammar and source content. Fallback rows
// store no body; the original text is reconstructed from the source the
// caller already holds.
func (s *Store) Get(lang grammar.Language, source string) (compress.Outcome, bool) {
	k := key(lang, source)
	if out, ok := s.lru.Get(k); ok {
		return out, true
	}

	row := s.db.QueryRow(`SELECT kind, body, reason FROM compressions WHERE key = ?`, k)
	var kind, body, reason string
	if err := row.Scan(&kind, &body, &reason); err != nil {
		if err != sql.ErrNoRows {
			log.Printf("CACHE: lookup error: %v", err)
		}
		return compress.Outcome{}, false
	}

	out := compress.Outcome{Text: body}
	if kind == kindFallback {
		out = compress.Outcome{Text: source, Fallback: true, Reason: reason}
	}
	s.lru.Add(k, out)
	return out, true
}

// Put stores an outcome in both tiers. Write failures degrade to a log
// line; the run carries on uncached.
func (s *Store) Put(lang grammar.Language, source string, out compress.Outcome) {
	k := key(lang, source)
	s.lru.Add(k, out)

	kind, body := kindCompressed, out.Text
	if out.Fallback {
		kind, body = kindFallback, ""
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO compressions (key, kind, body, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		k, kind, body, out.Reason, time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		log.Printf("CACHE: store error: %v", err)
	}
}

// Info describes the cache database for the cache info command.
type Info struct {
	Path      string
	Entries   int
	Fallbacks int
	SizeBytes int64
}

func (s *Store) Info() (Info, error) {
	info := Info{Path: s.path}

	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(kind = 'fallback'), 0) FROM compressions`)
	if err := row.Scan(&info.Entries, &info.Fallbacks); err != nil {
		return Info{}, fmt.Errorf("query cache info: %w", err)
	}
	if st, err := os.Stat(s.path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// Clear drops every entry from both tiers.
func (s *Store) Clear() error {
	s.lru.Purge()
	if _, err := s.db.Exec(`DELETE FROM compressions`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func key(lang grammar.Language, source string) string {
	h := sha256.Sum256([]byte(source))
	return lang.Name() + ":" + hex.EncodeToString(h[:])
}
