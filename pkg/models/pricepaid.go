package models

import (
	"time"

	"github.com/google/uuid"
)

// PricePaidRecord is a single transaction from the Land Registry Price Paid
// Data (PPD) dataset. Records are bulk-loaded into monthly partitions and
// read-only from the matching pipeline's perspective.
type PricePaidRecord struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Price         int64     `json:"price"`
	TransferDate  time.Time `json:"transfer_date"`
	Postcode      string    `json:"postcode"`
	// Address is the concatenated PAON/SAON/street/locality fields.
	Address string `json:"address"`
	Town    string `json:"town"`
	County  string `json:"county"`
}
