package models

import "time"

type SearchStatus string

const (
	SearchStatusSucceeded SearchStatus = "succeeded"
	SearchStatusFailed    SearchStatus = "failed"
)

// SearchLog is an audit row for one backend search request.
type SearchLog struct {
	ID          string            `json:"id" db:"id"`
	Message     string            `json:"message" db:"message"`
	Params      PlaceSearchParams `json:"params" db:"params"`
	ResultCount int               `json:"resultCount" db:"result_count"`
	Status      SearchStatus      `json:"status" db:"status"`
	ErrorCode   string            `json:"errorCode,omitempty" db:"error_code"`
	DurationMs  int64             `json:"durationMs" db:"duration_ms"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}
