package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserAlert is the append-only log row written after a broadcast alert has
// been delivered to the Flash API. Rows are never mutated or deleted.
type UserAlert struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Tag     string    `json:"tag"`
	SentBy  string    `json:"sent_by"`
	SentOn  time.Time `json:"sent_on"`
}
