// Command ingest-ppd loads a Land Registry Price Paid Data CSV export into
// the partitioned price_paid_records table.
//
// The PPD export is headerless with 16 columns per row. Rows that fail to
// parse are skipped and counted, never inferred.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/apperrors"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/config"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/database"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/models"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/normalize"
	"github.com/Property-Eye-UK-Ltd/property-eye-backend/pkg/repositories"
)

// PPD export column positions.
const (
	colTransactionID = 0
	colPrice         = 1
	colTransferDate  = 2
	colPostcode      = 3
	colPAON          = 7
	colSAON          = 8
	colStreet        = 9
	colLocality      = 10
	colTown          = 11
	colCounty        = 13

	ppdColumns = 16
)

const batchSize = 5000

func main() {
	csvPath := flag.String("csv", "", "path to a PPD CSV export (required)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("dev")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.URL(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: time.Duration(cfg.Database.ConnLifetimeMinutes) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.Database.ConnIdleMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := repositories.NewPricePaidRepository(db)

	record, already, err := ingestFile(ctx, repo, *csvPath, logger)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}
	if already {
		logger.Info("File already ingested, nothing to do",
			zap.String("path", *csvPath),
			zap.Time("ingested_at", record.IngestedAt))
		return
	}

	logger.Info("Ingestion complete",
		zap.String("path", *csvPath),
		zap.Int64("inserted", record.RowsInserted),
		zap.Int64("skipped", record.RowsSkipped))
}

// ingestFile loads one CSV export unless its content hash already appears in
// the ingest history, making repeat runs on the same file no-ops.
func ingestFile(ctx context.Context, repo repositories.PricePaidRepository, path string, logger *zap.Logger) (*models.PPDIngestRecord, bool, error) {
	sum, err := fileSHA256(path)
	if err != nil {
		return nil, false, err
	}

	prior, err := repo.FindIngest(ctx, sum)
	if err == nil {
		return prior, true, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("check ingest history: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	inserted, skipped, err := ingest(ctx, repo, file, logger)
	if err != nil {
		return nil, false, err
	}

	record := &models.PPDIngestRecord{
		Filename:     filepath.Base(path),
		SHA256:       sum,
		RowsInserted: inserted,
		RowsSkipped:  int64(skipped),
	}
	if err := repo.RecordIngest(ctx, record); err != nil {
		return nil, false, err
	}
	return record, false, nil
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash csv: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ingest streams the CSV, creating monthly partitions as new months appear
// and loading records in batches.
func ingest(ctx context.Context, repo repositories.PricePaidRepository, r io.Reader, logger *zap.Logger) (int64, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var (
		inserted int64
		skipped  int
		batch    []*models.PricePaidRecord
		months   = make(map[string]bool)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.BulkInsert(ctx, batch)
		if err != nil {
			return fmt.Errorf("bulk insert: %w", err)
		}
		inserted += n
		batch = batch[:0]
		return nil
	}

	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			logger.Warn("Unreadable CSV row", zap.Int("line", line), zap.Error(err))
			continue
		}

		record, err := parseRow(row)
		if err != nil {
			skipped++
			logger.Warn("Skipping row", zap.Int("line", line), zap.Error(err))
			continue
		}

		monthKey := record.TransferDate.Format("2006-01")
		if !months[monthKey] {
			if err := repo.CreatePartition(ctx, record.TransferDate.Year(), record.TransferDate.Month()); err != nil {
				return inserted, skipped, fmt.Errorf("create partition for %s: %w", monthKey, err)
			}
			months[monthKey] = true
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return inserted, skipped, err
			}
		}
	}

	if err := flush(); err != nil {
		return inserted, skipped, err
	}
	return inserted, skipped, nil
}

func parseRow(row []string) (*models.PricePaidRecord, error) {
	if len(row) != ppdColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", ppdColumns, len(row))
	}

	// Transaction IDs are exported wrapped in braces.
	id, err := uuid.Parse(strings.Trim(row[colTransactionID], "{}"))
	if err != nil {
		return nil, fmt.Errorf("transaction id: %w", err)
	}

	price, err := strconv.ParseInt(row[colPrice], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}

	transferDate, err := parseTransferDate(row[colTransferDate])
	if err != nil {
		return nil, fmt.Errorf("transfer date: %w", err)
	}

	postcode, _, _, ok := normalize.NormalizePostcode(row[colPostcode])
	if !ok {
		// Keep the raw value; screening treats it as invalid.
		postcode = strings.ToUpper(strings.TrimSpace(row[colPostcode]))
	}

	return &models.PricePaidRecord{
		TransactionID: id,
		Price:         price,
		TransferDate:  transferDate,
		Postcode:      postcode,
		Address:       buildAddress(row),
		Town:          strings.TrimSpace(row[colTown]),
		County:        strings.TrimSpace(row[colCounty]),
	}, nil
}

func parseTransferDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// buildAddress joins the PPD address components in display order.
func buildAddress(row []string) string {
	parts := make([]string, 0, 4)
	for _, col := range []int{colSAON, colPAON, colStreet, colLocality} {
		if v := strings.TrimSpace(row[col]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
