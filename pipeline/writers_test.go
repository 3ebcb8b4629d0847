package pipeline

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-crawl-books/models"
)

func sampleBook() *models.Book {
	return &models.Book{
		Name:        "The Three-Body Problem",
		Author:      "Liu Cixin",
		Publisher:   "Chongqing Press",
		PubDate:     "2008-1",
		Rating:      8.9,
		Reviews:     120543,
		Description: "First contact with the Trisolaran civilization.",
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	if err := writer.Write([]*models.Book{sampleBook()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "name" || records[0][4] != "rating" || records[0][6] != "description" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if row[0] != "The Three-Body Problem" {
		t.Fatalf("name column = %q", row[0])
	}
	if row[4] != "8.9" {
		t.Fatalf("rating column = %q, want 8.9", row[4])
	}
	if row[5] != "120543" {
		t.Fatalf("reviews column = %q, want 120543", row[5])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]*models.Book{sampleBook()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded models.Book
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded.Name != "The Three-Body Problem" || decoded.Reviews != 120543 {
			t.Fatalf("decoded book = %+v", decoded)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "books.csv")
	jsonPath := filepath.Join(dir, "books.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}

	if err := writer.Write([]*models.Book{sampleBook()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestSQLiteWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.db")

	writer, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("create sqlite writer: %v", err)
	}

	if err := writer.Validate(); err != nil {
		t.Fatalf("validate empty sqlite: %v", err)
	}

	book := sampleBook()
	if err := writer.Write([]*models.Book{book}); err != nil {
		t.Fatalf("write sqlite: %v", err)
	}
	// Re-writing the same name replaces the row instead of duplicating it.
	if err := writer.Write([]*models.Book{book}); err != nil {
		t.Fatalf("rewrite sqlite: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows=%d, want 1", count)
	}

	var name string
	var rating float64
	var reviews int
	row := db.QueryRow("SELECT name, rating, reviews FROM books WHERE name = ?", book.Name)
	if err := row.Scan(&name, &rating, &reviews); err != nil {
		t.Fatalf("scan row: %v", err)
	}
	if name != book.Name || rating != book.Rating || reviews != book.Reviews {
		t.Fatalf("stored row = %q %v %d", name, rating, reviews)
	}
}
