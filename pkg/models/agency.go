// Package models contains domain types for property-eye-backend.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency represents a real-estate agency whose listing exports are screened.
type Agency struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
