package models

import (
	"encoding/json"
	"time"
)

type OCRStatus string

const (
	OCRStatusPending   OCRStatus = "pending"
	OCRStatusSucceeded OCRStatus = "succeeded"
	OCRStatusFailed    OCRStatus = "failed"
	// OCRStatusDiscarded marks a result that arrived after its slot was reset.
	OCRStatusDiscarded OCRStatus = "discarded"
)

// Document is an uploaded file and the recognition outcome recorded for it.
type Document struct {
	ID          int64           `db:"id"`
	SessionID   string          `db:"session_id"`
	Kind        string          `db:"kind"`
	FileName    string          `db:"file_name"`
	ContentType string          `db:"content_type"`
	FileSize    int64           `db:"file_size"`
	StorageKey  string          `db:"storage_key"`
	URL         string          `db:"url"`
	OCRStatus   OCRStatus       `db:"ocr_status"`
	Extracted   json.RawMessage `db:"extracted"`
	OCRError    string          `db:"ocr_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
