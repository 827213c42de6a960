package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/database"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
)

// PricePaidIndex is the read contract the matching pipeline depends on.
// The store is partitioned by month of transfer_date, so a bounded date
// window touches only the partitions intersecting it.
type PricePaidIndex interface {
	// Query returns records whose postcode starts with postcodePrefix and
	// whose transfer_date lies within [from, to] inclusive.
	Query(ctx context.Context, postcodePrefix string, from, to time.Time) ([]*models.PricePaidRecord, error)
}

// PricePaidRepository extends the read contract with the ingestion-side
// operations used by cmd/ingest-ppd.
type PricePaidRepository interface {
	PricePaidIndex
	CreatePartition(ctx context.Context, year int, month time.Month) error
	BulkInsert(ctx context.Context, records []*models.PricePaidRecord) (int64, error)

	// FindIngest returns the ingest-history row for a file content hash,
	// or apperrors.ErrNotFound when the file has never been loaded.
	FindIngest(ctx context.Context, sha256 string) (*models.PPDIngestRecord, error)
	RecordIngest(ctx context.Context, record *models.PPDIngestRecord) error
}

type pricePaidRepository struct {
	db *database.DB
}

// NewPricePaidRepository creates a new price-paid repository.
func NewPricePaidRepository(db *database.DB) PricePaidRepository {
	return &pricePaidRepository{db: db}
}

func (r *pricePaidRepository) Query(ctx context.Context, postcodePrefix string, from, to time.Time) ([]*models.PricePaidRecord, error) {
	// The range predicate on transfer_date drives partition pruning; the
	// LIKE prefix uses the text_pattern_ops index within each partition.
	query := `
		SELECT transaction_id, price, transfer_date, postcode, address, town, county
		FROM price_paid_records
		WHERE postcode LIKE $1 || '%'
		  AND transfer_date >= $2
		  AND transfer_date <= $3`

	rows, err := r.db.Query(ctx, query, postcodePrefix, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query price paid records: %w", err)
	}
	defer rows.Close()

	var records []*models.PricePaidRecord
	for rows.Next() {
		var rec models.PricePaidRecord
		if err := rows.Scan(
			&rec.TransactionID,
			&rec.Price,
			&rec.TransferDate,
			&rec.Postcode,
			&rec.Address,
			&rec.Town,
			&rec.County,
		); err != nil {
			return nil, fmt.Errorf("failed to scan price paid record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price paid records: %w", err)
	}
	return records, nil
}

// CreatePartition ensures the monthly partition covering (year, month)
// exists. Idempotent.
func (r *pricePaidRepository) CreatePartition(ctx context.Context, year int, month time.Month) error {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS price_paid_y%dm%02d
		PARTITION OF price_paid_records
		FOR VALUES FROM ('%s') TO ('%s')`,
		year, int(month),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	if _, err := r.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create partition for %d-%02d: %w", year, int(month), err)
	}
	return nil
}

// BulkInsert loads records via COPY. Callers must have created the
// partitions covering every record's transfer_date.
func (r *pricePaidRepository) BulkInsert(ctx context.Context, records []*models.PricePaidRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.TransactionID,
			rec.Price,
			rec.TransferDate,
			rec.Postcode,
			rec.Address,
			rec.Town,
			rec.County,
		})
	}

	copied, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"price_paid_records"},
		[]string{"transaction_id", "price", "transfer_date", "postcode", "address", "town", "county"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return copied, fmt.Errorf("failed to bulk insert price paid records: %w", err)
	}
	return copied, nil
}

func (r *pricePaidRepository) FindIngest(ctx context.Context, sha256 string) (*models.PPDIngestRecord, error) {
	query := `
		SELECT id, filename, sha256, rows_inserted, rows_skipped, ingested_at
		FROM ppd_ingest_history
		WHERE sha256 = $1`

	var rec models.PPDIngestRecord
	err := r.db.QueryRow(ctx, query, sha256).Scan(
		&rec.ID,
		&rec.Filename,
		&rec.SHA256,
		&rec.RowsInserted,
		&rec.RowsSkipped,
		&rec.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ingest record: %w", err)
	}
	return &rec, nil
}

func (r *pricePaidRepository) RecordIngest(ctx context.Context, record *models.PPDIngestRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.IngestedAt = time.Now().UTC()

	query := `
		INSERT INTO ppd_ingest_history (id, filename, sha256, rows_inserted, rows_skipped, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.Filename,
		record.SHA256,
		record.RowsInserted,
		record.RowsSkipped,
		record.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest: %w", err)
	}
	return nil
}
