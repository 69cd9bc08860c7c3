package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

// LastError records the most recent processing failure on a document.
type LastError struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ReceiptDocument is the unit of work the orchestrator drives through
// uploaded -> processing -> processed | failed. Only the orchestrator
// mutates the processing fields; the storage layer owns create/destroy.
type ReceiptDocument struct {
	ID         uuid.UUID           `json:"id"`
	SourcePath string              `json:"source_path"`
	MimeType   string              `json:"mime_type"`
	FileSize   int64               `json:"file_size"`
	Status     constants.DocStatus `json:"status"`
	Attempts   int                 `json:"attempts"`
	LastError  *LastError          `json:"last_error,omitempty"`
	Result     *ExtractionResult   `json:"result,omitempty"`
	UploadedAt time.Time           `json:"uploaded_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// AttemptsExhausted reports whether automatic reprocessing must be refused.
func (d *ReceiptDocument) AttemptsExhausted() bool {
	return d.Attempts >= constants.MaxAttempts
}
