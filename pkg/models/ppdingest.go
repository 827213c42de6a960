package models

import (
	"time"

	"github.com/google/uuid"
)

// PPDIngestRecord tracks one loaded PPD CSV export. The content hash is the
// identity: re-running the ingest CLI on a file already loaded is a no-op.
type PPDIngestRecord struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	SHA256       string    `json:"sha256"`
	RowsInserted int64     `json:"rows_inserted"`
	RowsSkipped  int64     `json:"rows_skipped"`
	IngestedAt   time.Time `json:"ingested_at"`
}
