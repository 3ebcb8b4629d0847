package pipeline

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/aluiziolira/go-crawl-books/models"
)

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	name        TEXT PRIMARY KEY,
	author      TEXT NOT NULL,
	publisher   TEXT NOT NULL,
	pub_date    TEXT NOT NULL,
	rating      REAL NOT NULL,
	reviews     INTEGER NOT NULL,
	description TEXT NOT NULL
)`

// SQLiteWriter persists records into an embedded SQLite database.
// Names are primary keys; re-running a crawl into the same file
// replaces rows instead of duplicating them.
type SQLiteWriter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteWriter opens (or creates) the database and ensures the
// books table exists.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create books table: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Write upserts books in a single transaction.
func (sw *SQLiteWriter) Write(books []*models.Book) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO books
		(name, author, publisher, pub_date, rating, reviews, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, book := range books {
		if _, err := stmt.Exec(book.Name, book.Author, book.Publisher, book.PubDate, book.Rating, book.Reviews, book.Description); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %q: %w", book.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.db.Close()
}

// Validate ensures the books table landed on disk and is queryable.
func (sw *SQLiteWriter) Validate() error {
	var count int
	if err := sw.db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return fmt.Errorf("query books table: %w", err)
	}
	return nil
}
