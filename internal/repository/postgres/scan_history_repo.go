package postgres

import (
	"context"
	"fmt"

	"food-expose-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ScanHistoryRepository struct {
	db *pgxpool.Pool
}

func NewScanHistoryRepository(db *pgxpool.Pool) *ScanHistoryRepository {
	return &ScanHistoryRepository{db: db}
}

// EnsureScanHistorySchema creates the scan_history table if it does not exist.
func EnsureScanHistorySchema(ctx context.Context, db *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS scan_history (
			id            UUID             PRIMARY KEY,
			user_id       TEXT             NOT NULL,
			barcode       TEXT             NOT NULL,
			name          TEXT             NOT NULL,
			brand         TEXT             NOT NULL,
			calories_kcal DOUBLE PRECISION NOT NULL DEFAULT 0,
			protein_g     DOUBLE PRECISION NOT NULL DEFAULT 0,
			carbs_g       DOUBLE PRECISION NOT NULL DEFAULT 0,
			fat_g         DOUBLE PRECISION NOT NULL DEFAULT 0,
			fiber_g       DOUBLE PRECISION NOT NULL DEFAULT 0,
			sugar_g       DOUBLE PRECISION NOT NULL DEFAULT 0,
			salt_g        DOUBLE PRECISION NOT NULL DEFAULT 0,
			image_url     TEXT,
			scanned_at    TIMESTAMPTZ      NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scan_history_user ON scan_history (user_id, scanned_at DESC);
	`
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create scan_history: %w", err)
	}
	return nil
}

func (r *ScanHistoryRepository) Save(ctx context.Context, record *domain.ScanRecord) error {
	query := `
		INSERT INTO scan_history (
			id, user_id, barcode, name, brand,
			calories_kcal, protein_g, carbs_g, fat_g, fiber_g, sugar_g, salt_g,
			image_url, scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	p := record.Product
	_, err := r.db.Exec(ctx, query,
		record.ID, record.UserID, record.Barcode, p.Name, p.Brand,
		p.CaloriesKcal, p.ProteinG, p.CarbsG, p.FatG, p.FiberG, p.SugarG, p.SaltG,
		p.ImageURL, record.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan record: %w", err)
	}
	return nil
}

func (r *ScanHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ScanRecord, error) {
	query := `
		SELECT id, user_id, barcode, name, brand,
		       calories_kcal, protein_g, carbs_g, fat_g, fiber_g, sugar_g, salt_g,
		       image_url, scanned_at
		FROM scan_history
		WHERE user_id = $1
		ORDER BY scanned_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}
	defer rows.Close()

	var records []domain.ScanRecord
	for rows.Next() {
		var rec domain.ScanRecord
		p := &rec.Product
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Barcode, &p.Name, &p.Brand,
			&p.CaloriesKcal, &p.ProteinG, &p.CarbsG, &p.FatG, &p.FiberG, &p.SugarG, &p.SaltG,
			&p.ImageURL, &rec.ScannedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		p.Barcode = rec.Barcode
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return records, nil
}

func (r *ScanHistoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scan_history WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scan history: %w", err)
	}
	return count, nil
}

func (r *ScanHistoryRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
