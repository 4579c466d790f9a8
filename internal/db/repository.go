package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abner20953/bidding-data/internal/forensics"
)

var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored comparison. Result is the full JSON payload returned to
// the caller; items are also flattened into their own table for querying.
type Run struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	FileA     string            `json:"file_a"`
	FileB     string            `json:"file_b"`
	Tender    string            `json:"tender,omitempty"`
	Result    *forensics.Result `json:"result,omitempty"`
}

type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FileA      string    `json:"file_a"`
	FileB      string    `json:"file_b"`
	Tender     string    `json:"tender,omitempty"`
	MaxScore   int       `json:"max_score"`
	Items      int       `json:"items"`
	DurationMs int64     `json:"duration_ms"`
}

// SaveRun stores run and its items in one transaction, assigning an ID and
// timestamp when they are missing. It returns the stored ID.
func SaveRun(dbPath string, run Run) (string, error) {
	if run.Result == nil {
		return "", fmt.Errorf("save run: nil result")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	conn, err := Open(dbPath)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	raw, err := json.Marshal(run.Result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs(id, created_at, file_a, file_b, tender, max_score, item_count, duration_ms, result) VALUES(?,?,?,?,?,?,?,?,?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.FileA,
		run.FileB,
		run.Tender,
		run.Result.MaxScore(),
		len(run.Result.Paragraphs),
		run.Result.Stats.DurationMs,
		string(raw),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, item := range run.Result.Paragraphs {
		if _, err := tx.Exec(
			`INSERT INTO items(run_id, position, type, score, page_a, page_b, text_a, text_b, description, badges) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			run.ID,
			i,
			string(item.Type),
			item.Score,
			item.PageA,
			item.PageB,
			item.TextA,
			item.TextB,
			item.Desc,
			strings.Join(item.Badges, ","),
		); err != nil {
			return "", fmt.Errorf("insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the newest runs first. limit <= 0 means 50.
func ListRuns(dbPath string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(
		`SELECT id, created_at, file_a, file_b, tender, max_score, item_count, duration_ms FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var s RunSummary
		var created string
		if err := rows.Scan(&s.ID, &created, &s.FileA, &s.FileB, &s.Tender, &s.MaxScore, &s.Items, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

func LoadRun(dbPath, id string) (*Run, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	run := &Run{ID: id}
	var created, raw string
	err = conn.QueryRow(
		`SELECT created_at, file_a, file_b, tender, result FROM runs WHERE id = ?`, id,
	).Scan(&created, &run.FileA, &run.FileB, &run.Tender, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, created)

	run.Result = &forensics.Result{}
	if err := json.Unmarshal([]byte(raw), run.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return run, nil
}

func CountRows(dbPath, table string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, table)
}

func countRowsConn(conn *sql.DB, table string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
