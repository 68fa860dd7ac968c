package wilderblog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested story or user does not exist.
var ErrNotFound = errors.New("wilderblog: not found")

// dateLayout keeps stored dates lexically ordered.
const dateLayout = "2006-01-02 15:04:05"

// Store wraps a SQLite database holding stories and users.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path with the given
// database/sql driver, ensures the data directory exists, and runs schema
// migrations.
func NewStore(driver, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	// WAL lets uploads and edits run while clients list posts; busy_timeout
	// makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS stories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    unique_id TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    date_published TEXT NOT NULL,
    categories TEXT NOT NULL,
    is_published INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_stories_date ON stories(date_published);
CREATE INDEX IF NOT EXISTS idx_stories_slug ON stories(slug);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL
);
`)
	return err
}

// Session starts a unit of work. Stories added, loaded or deleted through
// the session are written to the database only by SaveAll.
func (s *Store) Session() StoryRepository {
	return &storySession{store: s}
}

type storySession struct {
	store   *Store
	added   []*Story
	tracked []*Story
	deleted []int64
}

func (ss *storySession) AddStory(ctx context.Context, st *Story) error {
	if st == nil {
		return errors.New("wilderblog: nil story")
	}
	ss.added = append(ss.added, st)
	return nil
}

func (ss *storySession) GetStory(ctx context.Context, id int64) (*Story, error) {
	for _, st := range ss.tracked {
		if st.ID == id {
			return st, nil
		}
	}
	row := ss.store.db.QueryRowContext(ctx, `SELECT id, unique_id, slug, title, body, date_published, categories, is_published FROM stories WHERE id = ?`, id)
	st, err := scanStory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ss.tracked = append(ss.tracked, st)
	return st, nil
}

// GetStories returns up to max stories, most recently published first.
func (ss *storySession) GetStories(ctx context.Context, max int) ([]Story, error) {
	if max <= 0 {
		return nil, nil
	}
	rows, err := ss.store.db.QueryContext(ctx, `SELECT id, unique_id, slug, title, body, date_published, categories, is_published FROM stories ORDER BY date_published DESC, id DESC LIMIT ?`, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, *st)
	}
	return stories, rows.Err()
}

// DeleteStory schedules the story for deletion. It reports ErrNotFound when
// no story has that id.
func (ss *storySession) DeleteStory(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := ss.store.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM stories WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	ss.deleted = append(ss.deleted, id)
	return true, nil
}

// GetCategories returns the sorted, distinct, non-empty category labels of all stories.
func (ss *storySession) GetCategories(ctx context.Context) ([]string, error) {
	rows, err := ss.store.db.QueryContext(ctx, `SELECT categories FROM stories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var cats string
		if err := rows.Scan(&cats); err != nil {
			return nil, err
		}
		for _, c := range strings.Split(cats, ",") {
			if c = strings.TrimSpace(c); c != "" {
				set[c] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for c := range set {
		result = append(result, c)
	}
	sort.Strings(result)
	return result, nil
}

// SaveAll writes every pending insert, update and delete in one transaction.
// New stories get their ID assigned on success.
func (ss *storySession) SaveAll(ctx context.Context) error {
	tx, err := ss.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	deleted := make(map[int64]bool, len(ss.deleted))
	for _, id := range ss.deleted {
		deleted[id] = true
	}

	ids := make([]int64, len(ss.added))
	for i, st := range ss.added {
		res, err := tx.ExecContext(ctx, `INSERT INTO stories (unique_id, slug, title, body, date_published, categories, is_published) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.UniqueID, st.Slug, st.Title, st.Body, formatDate(st.DatePublished), st.Categories, boolToInt(st.IsPublished))
		if err != nil {
			return fmt.Errorf("insert story: %w", err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert story: %w", err)
		}
	}
	for _, st := range ss.tracked {
		if deleted[st.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE stories SET unique_id = ?, slug = ?, title = ?, body = ?, date_published = ?, categories = ?, is_published = ? WHERE id = ?`,
			st.UniqueID, st.Slug, st.Title, st.Body, formatDate(st.DatePublished), st.Categories, boolToInt(st.IsPublished), st.ID); err != nil {
			return fmt.Errorf("update story %d: %w", st.ID, err)
		}
	}
	for id := range deleted {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete story %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for i, st := range ss.added {
		st.ID = ids[i]
	}
	ss.tracked = append(ss.tracked, ss.added...)
	ss.added = nil
	ss.deleted = nil
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStory(row rowScanner) (*Story, error) {
	var st Story
	var date string
	var published int
	if err := row.Scan(&st.ID, &st.UniqueID, &st.Slug, &st.Title, &st.Body, &date, &st.Categories, &published); err != nil {
		return nil, err
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("story %d: parse date %q: %w", st.ID, date, err)
	}
	st.DatePublished = t
	st.IsPublished = published == 1
	return &st, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
