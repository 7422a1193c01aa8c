package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"zonewatch/internal/domain/entity"
	"zonewatch/internal/domain/port"
)

// PostgresScanRepository хранит отчёты сканирований в PostgreSQL
type PostgresScanRepository struct {
	db *sql.DB
}

// NewPostgresScanRepository подключается к базе и создаёт таблицу
func NewPostgresScanRepository(ctx context.Context, dsn string) (*PostgresScanRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	repo := &PostgresScanRepository{db: db}
	if err := repo.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresScanRepository) init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		video_path TEXT NOT NULL,
		state TEXT NOT NULL,
		frames_analyzed INTEGER NOT NULL,
		detections INTEGER NOT NULL,
		report JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	return err
}

// Save сохраняет или перезаписывает отчёт
func (r *PostgresScanRepository) Save(ctx context.Context, scanID string, videoPath string, result *entity.ScanResult) error {
	report, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO scans (id, video_path, state, frames_analyzed, detections, report, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET state = $3, frames_analyzed = $4, detections = $5, report = $6`,
		scanID,
		videoPath,
		string(result.State),
		result.FramesAnalyzed,
		len(result.Detections),
		report,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan %s: %w", scanID, err)
	}
	return nil
}

// Get возвращает отчёт; nil, если сканирование не найдено
func (r *PostgresScanRepository) Get(ctx context.Context, scanID string) (*entity.ScanResult, error) {
	var report []byte
	err := r.db.QueryRowContext(ctx, `SELECT report FROM scans WHERE id = $1`, scanID).Scan(&report)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scan %s: %w", scanID, err)
	}

	var result entity.ScanResult
	if err := json.Unmarshal(report, &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan %s: %w", scanID, err)
	}
	return &result, nil
}

// Close закрывает соединение с базой
func (r *PostgresScanRepository) Close() error {
	return r.db.Close()
}

var _ port.ScanRepository = (*PostgresScanRepository)(nil)
