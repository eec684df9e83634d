// database/import_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gewnthar/verif-rotation/models"
)

// ErrImportNotFound is returned when no import has the requested id.
var ErrImportNotFound = errors.New("import not found")

// ImportStore keeps the history of trip imports.
type ImportStore struct {
	db *sql.DB
}

func NewImportStore(db *sql.DB) *ImportStore {
	return &ImportStore{db: db}
}

// SaveImport writes the summary and its unresolved rows in one transaction.
func (s *ImportStore) SaveImport(ctx context.Context, summary models.ImportSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for import %s: %w", summary.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trip_imports (id, source_name, total_rows, ok_rows, error_rows, degraded_rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.SourceName, summary.TotalRows, summary.OKRows,
		summary.ErrorRows, summary.DegradedRows, summary.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import %s: %w", summary.ID, err)
	}

	if len(summary.Unresolved) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO trip_import_errors (import_id, row_num, from_id, to_id) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare import error insert statement: %w", err)
		}
		defer stmt.Close()

		for _, u := range summary.Unresolved {
			if _, err := stmt.ExecContext(ctx, summary.ID, u.RowNumber, u.FromID, u.ToID); err != nil {
				return fmt.Errorf("failed to insert error row %d of import %s: %w", u.RowNumber, summary.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import %s: %w", summary.ID, err)
	}

	log.Printf("Database: saved import %s (%d unresolved rows)", summary.ID, len(summary.Unresolved))
	return nil
}

// ListImports returns the most recent imports first.
func (s *ImportStore) ListImports(ctx context.Context, limit int) ([]models.ImportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_name, total_rows, ok_rows, error_rows, degraded_rows, created_at
		FROM trip_imports
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	imports := []models.ImportSummary{}
	for rows.Next() {
		var (
			sum       models.ImportSummary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.SourceName, &sum.TotalRows, &sum.OKRows,
			&sum.ErrorRows, &sum.DegradedRows, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan import row: %w", err)
		}
		sum.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			log.Printf("WARN Database: import %s has an unreadable created_at %q: %v", sum.ID, createdAt, err)
		}
		imports = append(imports, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate imports: %w", err)
	}
	return imports, nil
}

// ListImportErrors returns the unresolved rows of one import in row order.
func (s *ImportStore) ListImportErrors(ctx context.Context, importID string) ([]models.UnresolvedTrip, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trip_imports WHERE id = ?`, importID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up import %s: %w", importID, err)
	}
	if exists == 0 {
		return nil, ErrImportNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_num, from_id, to_id
		FROM trip_import_errors
		WHERE import_id = ?
		ORDER BY row_num`, importID)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors of import %s: %w", importID, err)
	}
	defer rows.Close()

	unresolved := []models.UnresolvedTrip{}
	for rows.Next() {
		var u models.UnresolvedTrip
		if err := rows.Scan(&u.RowNumber, &u.FromID, &u.ToID); err != nil {
			return nil, fmt.Errorf("failed to scan import error row: %w", err)
		}
		unresolved = append(unresolved, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate errors of import %s: %w", importID, err)
	}
	return unresolved, nil
}

// Ping reports whether the database is reachable.
func (s *ImportStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
