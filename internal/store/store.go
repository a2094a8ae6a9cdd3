// Package store provides SQLite persistence for matched items.
//
// The archive remembers every item that ever reached the feed, keyed by
// URL, so a cycle can report how many of its results are genuinely new
// and the history command can replay recent finds without network
// activity.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Item is one archived result.
type Item struct {
	URL       string
	Source    string
	Title     string
	Snippet   string
	Keywords  []string
	Published time.Time
	FirstSeen time.Time
}

// Open creates a Store at the given database path, creating tables as
// needed. Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		url TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		snippet TEXT,
		keywords TEXT,
		published_at DATETIME,
		first_seen DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_first_seen ON items(first_seen DESC);
	CREATE INDEX IF NOT EXISTS idx_items_source ON items(source);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveItems archives items, returning the count of new rows. Items
// already present (by URL) are silently ignored via INSERT OR IGNORE;
// items without a URL cannot be identified and are skipped.
func (s *Store) SaveItems(items []Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO items (url, source, title, snippet, keywords, published_at, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	newItems := 0
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		firstSeen := item.FirstSeen
		if firstSeen.IsZero() {
			firstSeen = now
		}
		var published any
		if !item.Published.IsZero() {
			published = item.Published.UTC()
		}
		res, err := stmt.Exec(item.URL, item.Source, item.Title, item.Snippet,
			strings.Join(item.Keywords, ","), published, firstSeen)
		if err != nil {
			return 0, fmt.Errorf("insert item: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			newItems += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return newItems, nil
}

// Recent returns the most recently archived items, newest first.
func (s *Store) Recent(limit int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT url, source, title, snippet, keywords, published_at, first_seen
		FROM items ORDER BY first_seen DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var keywords string
		var published sql.NullTime
		if err := rows.Scan(&item.URL, &item.Source, &item.Title, &item.Snippet,
			&keywords, &published, &item.FirstSeen); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if keywords != "" {
			item.Keywords = strings.Split(keywords, ",")
		}
		if published.Valid {
			item.Published = published.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the total number of archived items.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
